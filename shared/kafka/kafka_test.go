package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/logging"
	"compass/orchestrator"
	"compass/types"
)

func init() {
	logging.SetOutput(io.Discard)
}

type fakeRunner struct {
	requests []orchestrator.Request
	err      error
}

func (f *fakeRunner) Run(_ context.Context, req orchestrator.Request) (*orchestrator.RunResult, error) {
	f.requests = append(f.requests, req)
	return &orchestrator.RunResult{RunID: "run-1", Date: req.Date}, f.err
}

func TestTypedMessageHandler(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var processed []string
	h := &TypedMessageHandler[payload]{
		Validate: func(p *payload) bool { return p.Name != "" },
		Process: func(_ context.Context, p *payload) error {
			if p.Name == "boom" {
				return errors.New("boom")
			}
			processed = append(processed, p.Name)
			return nil
		},
		AlwaysMark: true,
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		message  string
		wantMark bool
		wantErr  bool
	}{
		{"valid message", `{"name":"a"}`, true, false},
		{"invalid json is marked", `{`, true, false},
		{"rejected message is marked", `{"name":""}`, true, false},
		{"process error is not marked", `{"name":"boom"}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mark, err := h.HandleMessage(ctx, []byte(tt.message))
			assert.Equal(t, tt.wantMark, mark)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"a"}, processed)
}

func TestTypedMessageHandlerWithoutAlwaysMark(t *testing.T) {
	h := &TypedMessageHandler[RunRequest]{
		Process: func(context.Context, *RunRequest) error { return nil },
	}
	mark, err := h.HandleMessage(context.Background(), []byte("not json"))
	require.NoError(t, err)
	assert.False(t, mark)
}

func TestRunRequestHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("triggers a run", func(t *testing.T) {
		runner := &fakeRunner{}
		h := NewRunRequestHandler(runner)

		mark, err := h.HandleMessage(ctx, []byte(`{"date":"2026-02-01","fetch":true}`))
		require.NoError(t, err)
		assert.True(t, mark)
		assert.Equal(t, []orchestrator.Request{{Date: "2026-02-01", Fetch: true}}, runner.requests)
	})

	t.Run("empty date means today", func(t *testing.T) {
		runner := &fakeRunner{}
		h := NewRunRequestHandler(runner)

		mark, err := h.HandleMessage(ctx, []byte(`{}`))
		require.NoError(t, err)
		assert.True(t, mark)
		require.Len(t, runner.requests, 1)
		assert.Equal(t, "", runner.requests[0].Date)
	})

	t.Run("invalid date is skipped", func(t *testing.T) {
		runner := &fakeRunner{}
		h := NewRunRequestHandler(runner)

		mark, err := h.HandleMessage(ctx, []byte(`{"date":"yesterday"}`))
		require.NoError(t, err)
		assert.True(t, mark)
		assert.Empty(t, runner.requests)
	})

	t.Run("failed run is still marked", func(t *testing.T) {
		runner := &fakeRunner{err: types.ErrInvalidBriefing}
		h := NewRunRequestHandler(runner)

		mark, err := h.HandleMessage(ctx, []byte(`{"date":"2026-02-01"}`))
		require.NoError(t, err)
		assert.True(t, mark)
		assert.Len(t, runner.requests, 1)
	})
}

func TestPublishRunComplete(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	res := &orchestrator.RunResult{
		RunID:      "run-1",
		Date:       "2026-02-01",
		Volume:     7,
		Signals:    3,
		Dedup:      types.DedupStats{TotalBefore: 5, TotalAfter: 3, DroppedURL: 1, DroppedTitle: 1},
		Composite:  4.5,
		Level:      "Elevated",
		Status:     "success",
		FinishedAt: time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC),
	}

	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "compass-run-events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "2026-02-01" {
			return errors.New("unexpected key " + string(key))
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var ev RunEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		if ev.Event != EventRunComplete || ev.RunID != "run-1" || ev.Dropped != 2 || ev.Volume != 7 {
			return errors.New("unexpected event payload " + string(value))
		}
		return nil
	})

	p := NewProducerWith(sp, "compass-run-events")
	require.NoError(t, p.PublishRunComplete(context.Background(), res))
	require.NoError(t, p.Close())
}

func TestPublishRunCompleteFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(sp, "compass-run-events")
	err := p.PublishRunComplete(context.Background(), &orchestrator.RunResult{RunID: "r", Date: "2026-02-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNewRunEvent(t *testing.T) {
	ev := NewRunEvent(&orchestrator.RunResult{RunID: "r", Date: "2026-02-01", Status: "failed", Error: "bad"})
	assert.Equal(t, EventRunComplete, ev.Event)
	assert.Equal(t, "failed", ev.Status)
	assert.Equal(t, "bad", ev.Error)
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) markedOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

// fakeGroup delivers one session's worth of messages, then waits for
// cancellation like a real group with nothing left to read.
type fakeGroup struct {
	sarama.ConsumerGroup
	session *fakeSession
	claim   *fakeClaim
	errs    chan error
	once    sync.Once
	closed  chan struct{}
}

func newFakeGroup(ctx context.Context, values ...string) *fakeGroup {
	messages := make(chan *sarama.ConsumerMessage, len(values))
	for i, v := range values {
		messages <- &sarama.ConsumerMessage{Topic: "compass-run-requests", Offset: int64(i), Value: []byte(v)}
	}
	close(messages)
	return &fakeGroup{
		session: &fakeSession{ctx: ctx},
		claim:   &fakeClaim{messages: messages},
		errs:    make(chan error),
		closed:  make(chan struct{}),
	}
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, handler sarama.ConsumerGroupHandler) error {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.closed:
			return sarama.ErrClosedConsumerGroup
		}
	}
	if err := handler.Setup(g.session); err != nil {
		return err
	}
	if err := handler.ConsumeClaim(g.session, g.claim); err != nil {
		return err
	}
	return handler.Cleanup(g.session)
}

func (g *fakeGroup) Errors() <-chan error { return g.errs }

func (g *fakeGroup) Close() error {
	close(g.closed)
	close(g.errs)
	return nil
}

type syncRunner struct {
	mu    sync.Mutex
	dates []string
}

func (r *syncRunner) Run(_ context.Context, req orchestrator.Request) (*orchestrator.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, req.Date)
	return &orchestrator.RunResult{RunID: "run-1", Date: req.Date}, nil
}

func (r *syncRunner) runs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dates...)
}

func TestConsumerHandlesRunRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := newFakeGroup(ctx,
		`{"date":"2026-02-01","fetch":true}`,
		`not json`,
		`{"date":"yesterday"}`,
		`{}`,
	)
	runner := &syncRunner{}
	consumer := NewConsumerWith(group, ConsumerConfig{
		Topic:   "compass-run-requests",
		GroupID: "compass",
		Handler: NewRunRequestHandler(runner),
	})

	require.NoError(t, consumer.Start(ctx))
	assert.Eventually(t, func() bool {
		return len(group.session.markedOffsets()) == 4
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []int64{0, 1, 2, 3}, group.session.markedOffsets())
	assert.Equal(t, []string{"2026-02-01", ""}, runner.runs())
	require.NoError(t, consumer.Close())
}

func TestConsumerStartCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	group := newFakeGroup(ctx)
	consumer := NewConsumerWith(group, ConsumerConfig{Topic: "t", GroupID: "g", Handler: NewRunRequestHandler(&syncRunner{})})
	assert.ErrorIs(t, consumer.Start(ctx), context.Canceled)
}
