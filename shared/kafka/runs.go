package kafka

import (
	"context"
	"time"

	"compass/logging"
	"compass/orchestrator"
	"compass/types"
)

// RunRequest asks a consumer to build the briefing for Date. An empty Date
// means today.
type RunRequest struct {
	Date  string `json:"date"`
	Fetch bool   `json:"fetch"`
}

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.RunResult, error)
}

// NewRunRequestHandler decodes run requests and hands them to runner.
// Requests with a malformed date are dropped. A failed run is still marked:
// its outcome is already in the run history and on the events topic.
func NewRunRequestHandler(runner Runner) *TypedMessageHandler[RunRequest] {
	return &TypedMessageHandler[RunRequest]{
		Validate: func(msg *RunRequest) bool {
			if msg.Date == "" {
				return true
			}
			if _, err := time.Parse(types.DateLayout, msg.Date); err != nil {
				logging.Warn("run request has invalid date, skipping", "date", msg.Date)
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *RunRequest) error {
			res, err := runner.Run(ctx, orchestrator.Request{Date: msg.Date, Fetch: msg.Fetch})
			if err != nil {
				logging.Warn("requested run failed", "date", msg.Date, "err", err)
				return nil
			}
			logging.Info("requested run complete", "run_id", res.RunID, "date", res.Date)
			return nil
		},
		AlwaysMark: true,
	}
}

// NewRunRequestConsumer builds a consumer group that triggers runs.
func NewRunRequestConsumer(brokers []string, topic, groupID string, runner Runner) (*Consumer, error) {
	return NewConsumer(ConsumerConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		Handler: NewRunRequestHandler(runner),
	})
}
