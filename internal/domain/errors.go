package domain

import (
	"errors"
	"fmt"
)

// ErrPaymentNotFound signals a local lookup miss.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrPaymentAlreadyExists signals a duplicate order-creation delivery.
var ErrPaymentAlreadyExists = errors.New("payment already exists")

// PersistenceError wraps a storage fault. It always carries the underlying
// cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PaymentCreationError covers gateway and duplicate-creation faults during
// the create workflow.
type PaymentCreationError struct {
	Reason string
	Err    error
}

func (e *PaymentCreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PaymentCreationError) Unwrap() error { return e.Err }

// InvalidTransitionError reports an illegal payment status transition.
type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("unable to update a payment status from %s to %s", e.From, e.To)
}

// DuplicateExternalIDError reports a finalize attempt for a processor order
// that was already applied to some payment.
type DuplicateExternalIDError struct {
	ExternalID string
}

func (e *DuplicateExternalIDError) Error() string {
	return fmt.Sprintf("payment with external ID %s already exists", e.ExternalID)
}

// EventPublishingError wraps an event-bus fault during publication.
type EventPublishingError struct {
	Err error
}

func (e *EventPublishingError) Error() string {
	return fmt.Sprintf("failed to publish event: %v", e.Err)
}

func (e *EventPublishingError) Unwrap() error { return e.Err }
