package kafka_infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one consumed message. A nil return acknowledges
// the message; an error leaves the offset uncommitted so the message is
// redelivered after the group rebalances or the service restarts.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader  *kafka.Reader
	logger  *zap.Logger
	handler MessageHandler
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler, l *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    0, // commit synchronously, only after the handler succeeded
		HeartbeatInterval: 3 * time.Second,
		MaxAttempts:       3,
		Logger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Error(fmt.Sprintf(msg, args...)) }),
	})

	return &Consumer{
		reader:  reader,
		logger:  l,
		handler: handler,
	}
}

// Consume runs the fetch -> handle -> commit loop until ctx is cancelled.
// Handler failures are contained per message; the loop keeps going and the
// unacknowledged message comes back on redelivery.
func (c *Consumer) Consume(ctx context.Context) error {
	c.logger.Info("Kafka consumer starting message consumption",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group_id", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context cancelled, stopping consumer.", zap.String("topic", c.reader.Config().Topic))
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, kafka.ErrGroupClosed) {
				c.logger.Info("Consumer stopping due to context cancellation or reader closure.",
					zap.String("topic", c.reader.Config().Topic))
				return nil
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err), zap.String("topic", c.reader.Config().Topic))
			time.Sleep(1 * time.Second)
			continue
		}

		// Handling runs on its own context so an in-flight message finishes
		// even when shutdown cancels the consume loop.
		handleCtx, cancelHandle := context.WithTimeout(context.Background(), 25*time.Second)
		if err := c.handler(handleCtx, msg); err != nil {
			c.logger.Error("Error handling Kafka message, offset not committed",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			cancelHandle()
			continue
		}
		cancelHandle()

		commitCtx, cancelCommit := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			c.logger.Error("Failed to commit offset for message",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		cancelCommit()
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka consumer reader", zap.Error(err), zap.String("topic", c.reader.Config().Topic))
		return fmt.Errorf("failed to close Kafka consumer reader: %w", err)
	}
	c.logger.Info("Kafka consumer reader closed.", zap.String("topic", c.reader.Config().Topic))
	return nil
}
