package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/common/models"
	"github.com/solucions-socials/platform/pkg/gateway/httpclient"
)

type Consumer struct {
	reader   *kafka.Reader
	attempts int
	backoff  time.Duration
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(topic string, groupID string) *Consumer {
	cfg := config.Load()
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
	})

	return &Consumer{reader: reader, attempts: cfg.KafkaHandlerAttempts, backoff: cfg.KafkaHandlerBackoff}
}

// Consume blocks until ctx is cancelled. A failing handler is retried on the
// same message with exponential backoff, so later messages of the partition
// wait behind it. Once the attempts are exhausted the message is logged and
// committed; the offset only ever moves past handled or abandoned messages.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		var event models.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).Error("Failed to unmarshal event")
			_ = c.reader.CommitMessages(ctx, message)
			continue
		}

		if err := c.process(ctx, handler, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"event_id": event.ID,
				"offset":   message.Offset,
				"attempts": c.attempts,
			}).Error("Abandoning event after repeated failures")
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).Error("Failed to commit message")
		}
	}
}

// process runs handler until it succeeds, ctx ends or the attempts run out.
func (c *Consumer) process(ctx context.Context, handler EventHandler, event models.Event) error {
	attempt := 0
	return httpclient.Retry(ctx, c.attempts, c.backoff, nil, func() error {
		attempt++
		err := handler(ctx, event)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"event_id": event.ID,
				"attempt":  attempt,
			}).Warn("Failed to process event")
		}
		return err
	})
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
