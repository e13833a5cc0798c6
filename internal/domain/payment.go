package domain

import (
	"fmt"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusOpened  PaymentStatus = "OPENED"
	PaymentStatusClosed  PaymentStatus = "CLOSED"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

// ExpirationWindow is how long a gateway order stays payable after creation.
const ExpirationWindow = 15 * time.Minute

// Payment tracks one order's settlement lifecycle. ID is the originating
// order id. ExternalID holds a placeholder until finalization correlates the
// payment with the processor's own order id. CreatedAt and Timestamp are
// assigned by the store and stay zero on drafts.
type Payment struct {
	ID              string
	ExternalID      string
	Status          PaymentStatus
	TotalOrderValue float64
	QRCode          string
	Expiration      time.Time
	CreatedAt       time.Time
	Timestamp       time.Time
}

// NewPayment builds an OPENED draft payment for an order.
func NewPayment(orderID string, totalOrderValue float64, now time.Time) (*Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("order id must not be empty")
	}
	if totalOrderValue < 0 {
		return nil, fmt.Errorf("total order value must not be negative, got %v", totalOrderValue)
	}

	return &Payment{
		ID:              orderID,
		ExternalID:      PlaceholderExternalID(orderID),
		Status:          PaymentStatusOpened,
		TotalOrderValue: totalOrderValue,
		Expiration:      now.UTC().Add(ExpirationWindow),
	}, nil
}

// PlaceholderExternalID is the non-correlating external id a payment carries
// until the processor assigns the real one.
func PlaceholderExternalID(orderID string) string {
	return "empty-" + orderID
}

// Finalize moves the payment out of OPENED into a terminal status. The only
// legal transitions are OPENED -> CLOSED and OPENED -> EXPIRED; everything
// else fails with InvalidTransitionError.
func (p *Payment) Finalize(status PaymentStatus) error {
	if p.Status != PaymentStatusOpened {
		return &InvalidTransitionError{From: p.Status, To: status}
	}
	if status != PaymentStatusClosed && status != PaymentStatusExpired {
		return &InvalidTransitionError{From: p.Status, To: status}
	}
	p.Status = status
	return nil
}
