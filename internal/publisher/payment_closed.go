package publisher

import (
	"context"

	json "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"payments/internal/domain"
	"payments/internal/domain/event"
	kafka_infra "payments/internal/infrastructure/kafka"
)

// All closed events share one message key so they land on one partition and
// stay ordered. The message-id header carries the event id as the
// deduplication key for downstream consumers.
const (
	MessageGroupKey   = "payment-closed"
	MessageIDHeader   = "message-id"
	EventTypeHeader   = "event-type"
	paymentClosedType = "PaymentClosedEvent"
)

// PaymentClosedPublisher implements payments.EventPublisher on a Kafka topic.
type PaymentClosedPublisher struct {
	producer kafka_infra.Producer
	logger   *zap.Logger
}

func NewPaymentClosedPublisher(producer kafka_infra.Producer, logger *zap.Logger) *PaymentClosedPublisher {
	return &PaymentClosedPublisher{
		producer: producer,
		logger:   logger,
	}
}

func (p *PaymentClosedPublisher) Publish(ctx context.Context, evt event.PaymentClosedEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return &domain.EventPublishingError{Err: err}
	}

	headers := []kafka.Header{
		{Key: MessageIDHeader, Value: []byte(evt.ID)},
		{Key: EventTypeHeader, Value: []byte(paymentClosedType)},
	}
	if err := p.producer.Produce(ctx, MessageGroupKey, payload, headers...); err != nil {
		return &domain.EventPublishingError{Err: err}
	}

	p.logger.Debug("Published payment closed event",
		zap.String("event_id", evt.ID),
		zap.String("payment_id", evt.PaymentID),
	)
	return nil
}
