package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"payments/internal/domain"
	"payments/internal/domain/event"
)

// ProductInput is one line item of an incoming order.
type ProductInput struct {
	Name      string
	Category  string
	UnitPrice float64
	Quantity  int
}

// CreatePaymentCommand opens a payment for a newly created order.
type CreatePaymentCommand struct {
	OrderID         string
	TotalOrderValue float64
	Products        []ProductInput
}

type PaymentService interface {
	CreatePaymentFromOrder(ctx context.Context, cmd CreatePaymentCommand) (*domain.Payment, error)
	FinalizePaymentByProcessorPaymentID(ctx context.Context, processorPaymentID string) (*domain.Payment, error)
	FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error)
}

type paymentService struct {
	repo      PaymentRepository
	gateway   PaymentGateway
	processor ProcessorClient
	publisher EventPublisher
	logger    *zap.Logger
}

func NewPaymentService(
	repo PaymentRepository,
	gateway PaymentGateway,
	processor ProcessorClient,
	publisher EventPublisher,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:      repo,
		gateway:   gateway,
		processor: processor,
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePaymentFromOrder opens a payment for an order: it rejects duplicate
// order ids, registers the order with the gateway and persists the payment
// only after the gateway produced a QR code.
func (s *paymentService) CreatePaymentFromOrder(ctx context.Context, cmd CreatePaymentCommand) (*domain.Payment, error) {
	exists, err := s.repo.ExistsByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Info("Duplicate order creation rejected", zap.String("order_id", cmd.OrderID))
		return nil, &domain.PaymentCreationError{
			Reason: fmt.Sprintf("payment with ID %s already exists", cmd.OrderID),
			Err:    domain.ErrPaymentAlreadyExists,
		}
	}

	products := make([]domain.Product, 0, len(cmd.Products))
	for _, in := range cmd.Products {
		product, err := domain.NewProduct(in.Name, in.Category, in.UnitPrice, in.Quantity)
		if err != nil {
			return nil, &domain.PaymentCreationError{Reason: "invalid product", Err: err}
		}
		products = append(products, product)
	}

	payment, err := domain.NewPayment(cmd.OrderID, cmd.TotalOrderValue, time.Now())
	if err != nil {
		return nil, &domain.PaymentCreationError{Reason: "invalid order", Err: err}
	}

	payment, err = s.gateway.Create(ctx, payment, products)
	if err != nil {
		var creationErr *domain.PaymentCreationError
		if !errors.As(err, &creationErr) {
			err = &domain.PaymentCreationError{Reason: "error creating payment in gateway", Err: err}
		}
		s.logger.Error("Gateway order creation failed", zap.String("order_id", cmd.OrderID), zap.Error(err))
		return nil, err
	}

	saved, err := s.repo.Save(ctx, payment)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment opened",
		zap.String("payment_id", saved.ID),
		zap.Float64("total_order_value", saved.TotalOrderValue),
		zap.Time("expiration", saved.Expiration),
	)
	return saved, nil
}

// FinalizePaymentByProcessorPaymentID reconciles a processor notification
// against the local payment: it resolves the processor payment to its order,
// rejects orders that were already applied to some payment, transitions the
// local payment into the processor-reported terminal status and publishes a
// closed event when the result is CLOSED.
func (s *paymentService) FinalizePaymentByProcessorPaymentID(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
	procPayment, err := s.processor.FindPaymentByID(ctx, processorPaymentID)
	if err != nil {
		return nil, err
	}

	procOrder, err := s.processor.FindOrderByID(ctx, procPayment.OrderID)
	if err != nil {
		return nil, err
	}

	externalID := strconv.FormatInt(procOrder.ID, 10)
	exists, err := s.repo.ExistsByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Info("Duplicate processor notification rejected",
			zap.String("processor_payment_id", processorPaymentID),
			zap.String("external_id", externalID),
		)
		return nil, &domain.DuplicateExternalIDError{ExternalID: externalID}
	}

	payment, err := s.repo.FindByID(ctx, procOrder.ExternalReference)
	if err != nil {
		return nil, err
	}

	status, err := statusFromProcessorOrder(procOrder.Status)
	if err != nil {
		return nil, err
	}

	payment.ExternalID = externalID
	if err := payment.Finalize(status); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, payment)
	if err != nil {
		return nil, err
	}

	if saved.Status == domain.PaymentStatusClosed {
		evt := event.NewPaymentClosedEvent(saved.ID)
		if err := s.publisher.Publish(ctx, evt); err != nil {
			// The state change is already committed; redelivery of the same
			// notification will now hit the duplicate-external-id guard, so
			// the failed publish stays visible to operators instead of being
			// swallowed.
			s.logger.Error("Payment persisted but closed event publish failed",
				zap.String("payment_id", saved.ID),
				zap.String("event_id", evt.ID),
				zap.Error(err),
			)
			return nil, err
		}
		s.logger.Info("Payment closed event published",
			zap.String("payment_id", saved.ID),
			zap.String("event_id", evt.ID),
		)
	}

	s.logger.Info("Payment finalized",
		zap.String("payment_id", saved.ID),
		zap.String("external_id", saved.ExternalID),
		zap.String("status", string(saved.Status)),
	)
	return saved, nil
}

func (s *paymentService) FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

func statusFromProcessorOrder(status ProcessorOrderStatus) (domain.PaymentStatus, error) {
	switch status {
	case ProcessorOrderStatusOpened:
		return domain.PaymentStatusOpened, nil
	case ProcessorOrderStatusClosed:
		return domain.PaymentStatusClosed, nil
	case ProcessorOrderStatusExpired:
		return domain.PaymentStatusExpired, nil
	default:
		return "", fmt.Errorf("unknown processor order status %q", status)
	}
}
