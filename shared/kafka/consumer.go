package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"compass/logging"

	"github.com/IBM/sarama"
	"github.com/charmbracelet/log"
)

// MessageHandler processes one message value. The returned flag says whether
// the offset should be committed; unmarked messages come back after the next
// rebalance.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
}

// Consumer runs a consumer group over one topic. It is its own
// sarama.ConsumerGroupHandler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topic   string
	groupID string
	logger  *log.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewConsumer connects a consumer group to the brokers. New groups start at
// the newest offset so old run requests are not replayed.
func NewConsumer(config ConsumerConfig) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", config.GroupID, err)
	}
	return NewConsumerWith(group, config), nil
}

// NewConsumerWith wraps an existing consumer group.
func NewConsumerWith(group sarama.ConsumerGroup, config ConsumerConfig) *Consumer {
	return &Consumer{
		group:   group,
		handler: config.Handler,
		topic:   config.Topic,
		groupID: config.GroupID,
		logger:  logging.WithPrefix("kafka"),
		ready:   make(chan struct{}),
	}
}

// Start joins the group and returns once the first session is set up.
// Consumption continues in the background until ctx is canceled or the
// consumer is closed.
func (c *Consumer) Start(ctx context.Context) error {
	go c.consume(ctx)

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info("consumer started", "group", c.groupID, "topic", c.topic)

	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("consumer group error", "err", err)
		}
	}()
	return nil
}

// consume rejoins the group after every rebalance.
func (c *Consumer) consume(ctx context.Context) {
	for ctx.Err() == nil {
		err := c.group.Consume(ctx, []string{c.topic}, c)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return
		case errors.Is(err, context.Canceled):
			c.logger.Debug("consumer context canceled")
			return
		case err != nil:
			c.logger.Error("consume failed", "err", err)
		}
	}
}

// Close leaves the group
func (c *Consumer) Close() error {
	c.logger.Info("closing consumer", "group", c.groupID)
	return c.group.Close()
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.readyOnce.Do(func() { close(c.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim handles the claim's messages in order until the session ends.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			c.handle(session, message)
		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *Consumer) handle(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) {
	c.logger.Debug("received message",
		"topic", message.Topic, "partition", message.Partition,
		"offset", message.Offset, "key", string(message.Key))

	shouldMark, err := c.handler.HandleMessage(session.Context(), message.Value)
	if err != nil {
		c.logger.Error("failed to handle message", "offset", message.Offset, "err", err)
	}
	if shouldMark {
		session.MarkMessage(message, "")
	}
}

// TypedMessageHandler decodes JSON messages into T before processing them.
type TypedMessageHandler[T any] struct {
	// Validate rejects messages that should not be processed
	Validate func(msg *T) bool
	// Process handles an accepted message
	Process func(ctx context.Context, msg *T) error
	// AlwaysMark commits undecodable and rejected messages so they are not redelivered
	AlwaysMark bool
}

// HandleMessage implements MessageHandler. A message is marked once Process
// succeeds; Process errors leave it unmarked.
func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		logging.Warn("dropping undecodable message", "err", err)
		return h.AlwaysMark, nil
	}
	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}
	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}
