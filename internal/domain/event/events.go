package event

import (
	"time"

	"github.com/google/uuid"
)

// PaymentClosedEvent is emitted exactly once per payment that transitions
// into CLOSED. Values are never mutated after construction.
type PaymentClosedEvent struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
	PaymentID  string    `json:"payment_id"`
}

func NewPaymentClosedEvent(paymentID string) PaymentClosedEvent {
	return PaymentClosedEvent{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Version:    1,
		PaymentID:  paymentID,
	}
}
