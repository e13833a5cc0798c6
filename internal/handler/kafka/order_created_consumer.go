package kafka

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"payments/internal/app/payments"
	"payments/internal/domain"
	kafka_infra "payments/internal/infrastructure/kafka"
)

type ProductPayload struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type OrderCreatedMessage struct {
	OrderID         string           `json:"order_id"`
	TotalOrderValue float64          `json:"total_order_value"`
	Products        []ProductPayload `json:"products"`
}

// OrderCreatedMessageHandler feeds order-created messages into the
// create-payment workflow. Malformed payloads are logged and acknowledged so
// a poison message cannot stall the partition; duplicate deliveries are
// acknowledged because the payment already exists.
func OrderCreatedMessageHandler(paymentService payments.PaymentService, logger *zap.Logger) kafka_infra.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var orderMsg OrderCreatedMessage
		if err := json.Unmarshal(msg.Value, &orderMsg); err != nil {
			logger.Error("Failed to unmarshal order created message, dropping it",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}

		logger.Info("Processing order created message",
			zap.String("order_id", orderMsg.OrderID),
			zap.Float64("total_order_value", orderMsg.TotalOrderValue),
			zap.Int("products", len(orderMsg.Products)),
		)

		cmd := payments.CreatePaymentCommand{
			OrderID:         orderMsg.OrderID,
			TotalOrderValue: orderMsg.TotalOrderValue,
			Products:        make([]payments.ProductInput, 0, len(orderMsg.Products)),
		}
		for _, product := range orderMsg.Products {
			cmd.Products = append(cmd.Products, payments.ProductInput{
				Name:      product.Name,
				Category:  product.Category,
				UnitPrice: product.UnitPrice,
				Quantity:  product.Quantity,
			})
		}

		if _, err := paymentService.CreatePaymentFromOrder(ctx, cmd); err != nil {
			if errors.Is(err, domain.ErrPaymentAlreadyExists) {
				logger.Info("Order already has a payment, acknowledging duplicate delivery",
					zap.String("order_id", orderMsg.OrderID),
				)
				return nil
			}
			logger.Error("Failed to create payment from order",
				zap.String("order_id", orderMsg.OrderID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to create payment for order %s: %w", orderMsg.OrderID, err)
		}

		logger.Info("Successfully created payment from order", zap.String("order_id", orderMsg.OrderID))
		return nil
	}
}
