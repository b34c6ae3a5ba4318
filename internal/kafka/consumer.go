package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the record shape handlers consume.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
}

// Handler processes a single message. A non-nil error triggers retry with
// backoff; returning nil acks the message.
type Handler func(ctx context.Context, msg *Message) error

type Consumer struct {
	client *kgo.Client
	cfg    *Config
	topic  string
	group  string
	logger *zerolog.Logger
}

func NewConsumer(cfg *Config, group, topic string, logger *zerolog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.HeartbeatInterval(cfg.HeartbeatInterval),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{
		client: client,
		cfg:    cfg,
		topic:  topic,
		group:  group,
		logger: logger,
	}, nil
}

// Run polls until the context is cancelled, passing each record through the
// handler. Offsets commit after every poll batch.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fetches := c.client.PollFetches(ctx)
		for _, fetchErr := range fetches.Errors() {
			// Transient fetch errors are common during rebalances.
			c.logger.Warn().Err(fetchErr.Err).
				Str("topic", fetchErr.Topic).
				Int32("partition", fetchErr.Partition).
				Msg("kafka fetch error")
		}

		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Partition: record.Partition,
				Offset:    record.Offset,
				Timestamp: record.Timestamp,
				Headers:   headersToMap(record.Headers),
			}

			if err := c.handleWithRetry(ctx, handler, msg); err != nil {
				// Exhausted retries. The message is acked anyway; the outbox
				// relay will reproduce it if the source row is still pending.
				c.logger.Error().Err(err).
					Str("topic", msg.Topic).
					Int64("offset", msg.Offset).
					Msg("message processing failed after retries")
			}
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to commit offsets")
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handler Handler, msg *Message) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := handler(ctx, msg); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Consumer) Close() {
	c.client.Close()
}

func headersToMap(headers []kgo.RecordHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}
