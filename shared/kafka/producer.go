package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compass/logging"
	"compass/orchestrator"

	"github.com/IBM/sarama"
)

// EventRunComplete is the event type published after every run.
const EventRunComplete = "run_complete"

// RunEvent is the message published on the events topic.
type RunEvent struct {
	Event      string    `json:"event"`
	RunID      string    `json:"run_id"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Volume     int       `json:"volume"`
	Signals    int       `json:"signals"`
	Dropped    int       `json:"dropped"`
	Composite  float64   `json:"composite"`
	Level      string    `json:"level"`
	Paths      []string  `json:"paths,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRunEvent summarizes a run result.
func NewRunEvent(res *orchestrator.RunResult) RunEvent {
	return RunEvent{
		Event:      EventRunComplete,
		RunID:      res.RunID,
		Date:       res.Date,
		Status:     res.Status,
		Error:      res.Error,
		Volume:     res.Volume,
		Signals:    res.Signals,
		Dropped:    res.Dedup.TotalDropped(),
		Composite:  res.Composite,
		Level:      res.Level,
		Paths:      res.Paths,
		FinishedAt: res.FinishedAt,
	}
}

// Producer publishes run events
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer connects a synchronous producer
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerWith(p, config.Topic), nil
}

// NewProducerWith wraps an existing producer.
func NewProducerWith(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// PublishRunComplete sends the run's event keyed by briefing date, so
// events for one date stay ordered on a partition.
func (p *Producer) PublishRunComplete(_ context.Context, res *orchestrator.RunResult) error {
	payload, err := json.Marshal(NewRunEvent(res))
	if err != nil {
		return fmt.Errorf("failed to encode run event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(res.Date),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}
	logging.Debug("published run event", "run_id", res.RunID, "partition", partition, "offset", offset)
	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
