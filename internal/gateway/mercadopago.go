package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"payments/internal/app/payments"
	"payments/internal/domain"
	"payments/internal/mercadopago"
)

// Gateway items are always sold per unit.
const unitMeasure = "unit"

// MercadoPagoGateway implements payments.PaymentGateway on top of the
// Mercado Pago dynamic QR order API.
type MercadoPagoGateway struct {
	client          *mercadopago.Client
	notificationURL string
}

func NewMercadoPagoGateway(client *mercadopago.Client, notificationURL string) *MercadoPagoGateway {
	return &MercadoPagoGateway{
		client:          client,
		notificationURL: notificationURL,
	}
}

func (g *MercadoPagoGateway) Create(ctx context.Context, payment *domain.Payment, products []domain.Product) (*domain.Payment, error) {
	items := make([]mercadopago.Item, 0, len(products))
	for _, product := range products {
		items = append(items, mercadopago.Item{
			Title:       product.Name,
			Category:    product.Category,
			Quantity:    product.Quantity,
			UnitMeasure: unitMeasure,
			UnitPrice:   product.UnitPrice,
			TotalAmount: product.TotalValue(),
		})
	}

	description := fmt.Sprintf("Order #%s", payment.ID)
	order := mercadopago.CreateOrderRequest{
		ExternalReference: payment.ID,
		TotalAmount:       payment.TotalOrderValue,
		Title:             description,
		Description:       description,
		ExpirationDate:    payment.Expiration.Format(time.RFC3339),
		Items:             items,
		NotificationURL:   g.notificationURL,
	}

	resp, err := g.client.CreateDynamicQROrder(ctx, order)
	if err != nil {
		return nil, &domain.PaymentCreationError{
			Reason: fmt.Sprintf("failed to create payment %s in Mercado Pago", payment.ID),
			Err:    err,
		}
	}

	payment.QRCode = resp.QRData
	return payment, nil
}

// MercadoPagoProcessor implements payments.ProcessorClient for the finalize
// workflow lookups.
type MercadoPagoProcessor struct {
	client *mercadopago.Client
}

func NewMercadoPagoProcessor(client *mercadopago.Client) *MercadoPagoProcessor {
	return &MercadoPagoProcessor{client: client}
}

func (p *MercadoPagoProcessor) FindPaymentByID(ctx context.Context, paymentID string) (payments.ProcessorPayment, error) {
	payment, err := p.client.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return payments.ProcessorPayment{}, err
	}

	orderID, err := strconv.ParseInt(payment.Order.ID, 10, 64)
	if err != nil {
		return payments.ProcessorPayment{}, fmt.Errorf("processor payment %s carries malformed order id %q: %w", paymentID, payment.Order.ID, err)
	}

	return payments.ProcessorPayment{
		OrderID: orderID,
		Status:  payment.Status,
	}, nil
}

func (p *MercadoPagoProcessor) FindOrderByID(ctx context.Context, orderID int64) (payments.ProcessorOrder, error) {
	order, err := p.client.FindOrderByID(ctx, orderID)
	if err != nil {
		return payments.ProcessorOrder{}, err
	}

	return payments.ProcessorOrder{
		ID:                order.ID,
		Status:            payments.ProcessorOrderStatus(order.Status),
		ExternalReference: order.ExternalReference,
	}, nil
}
