package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultRetryDelay = time.Second

// Consumer reads the audit topic in a consumer group and commits offsets
// only after each polled batch was handled.
type Consumer struct {
	client     *kgo.Client
	handler    RecordHandler
	logger     *slog.Logger
	retryDelay time.Duration
}

// New joins group on topic.
func New(brokers []string, topic, group string, handler RecordHandler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 || topic == "" || group == "" {
		return nil, errors.New("audit consumer requires brokers, topic and group")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger, retryDelay: defaultRetryDelay}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			c.logger.WarnContext(ctx, "audit fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			if err := c.handle(ctx, iter.Next()); err != nil {
				return nil
			}
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "audit offset commit failed", "error", err)
		}
	}
}

// handle retries a record until it is stored or ctx ends.
func (c *Consumer) handle(ctx context.Context, rec *kgo.Record) error {
	for {
		err := c.handler.Handle(ctx, rec)
		if err == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "audit record handling failed, retrying",
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
