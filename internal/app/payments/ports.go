package payments

import (
	"context"

	"payments/internal/domain"
	"payments/internal/domain/event"
)

// PaymentRepository is the persistence contract for the payment aggregate.
type PaymentRepository interface {
	// FindByID returns domain.ErrPaymentNotFound when the payment is absent
	// and *domain.PersistenceError on storage faults.
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	// Save upserts by primary id and returns the stored row with
	// server-assigned timestamps.
	Save(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
}

// PaymentGateway registers a dynamic-QR order with the external processor
// and returns the payment with its QR code populated.
type PaymentGateway interface {
	Create(ctx context.Context, payment *domain.Payment, products []domain.Product) (*domain.Payment, error)
}

// ProcessorOrderStatus is the processor's own order status vocabulary, kept
// distinct from domain.PaymentStatus so the conversion stays an explicit
// boundary.
type ProcessorOrderStatus string

const (
	ProcessorOrderStatusOpened  ProcessorOrderStatus = "opened"
	ProcessorOrderStatusClosed  ProcessorOrderStatus = "closed"
	ProcessorOrderStatusExpired ProcessorOrderStatus = "expired"
)

// ProcessorPayment is a processor-level payment resolved to its parent order.
type ProcessorPayment struct {
	OrderID int64
	Status  string
}

// ProcessorOrder carries the processor's order id, its status and the
// external reference (our local payment id) supplied at creation.
type ProcessorOrder struct {
	ID                int64
	Status            ProcessorOrderStatus
	ExternalReference string
}

// ProcessorClient queries order and payment status from the external
// processor. Implementations never retry on their own.
type ProcessorClient interface {
	FindPaymentByID(ctx context.Context, paymentID string) (ProcessorPayment, error)
	FindOrderByID(ctx context.Context, orderID int64) (ProcessorOrder, error)
}

// EventPublisher delivers payment-closed events to a durable topic with
// at-least-once semantics. Failures surface as *domain.EventPublishingError.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.PaymentClosedEvent) error
}
