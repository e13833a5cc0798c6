package payments_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payments/internal/app/payments"
	"payments/internal/domain"
	"payments/internal/mercadopago"
)

// WebhookKeyParam is the query parameter Mercado Pago is configured to append
// to notification callbacks.
const WebhookKeyParam = "x-mp-webhook-key"

type PaymentHandler struct {
	service    payments.PaymentService
	webhookKey string
	logger     *zap.Logger
}

func NewPaymentHandler(s payments.PaymentService, webhookKey string, l *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: s, webhookKey: webhookKey, logger: l}
}

type PaymentResponse struct {
	ID              string  `json:"id"`
	ExternalID      string  `json:"external_id"`
	PaymentStatus   string  `json:"payment_status"`
	TotalOrderValue float64 `json:"total_order_value"`
	QRCode          string  `json:"qr_code,omitempty"`
	Expiration      string  `json:"expiration"`
	CreatedAt       string  `json:"created_at,omitempty"`
	Timestamp       string  `json:"timestamp,omitempty"`
}

type MercadoPagoWebhookData struct {
	ID string `json:"id"`
}

type MercadoPagoWebhookRequest struct {
	Action string                 `json:"action"`
	Type   string                 `json:"type"`
	Data   MercadoPagoWebhookData `json:"data"`
}

func (h *PaymentHandler) FindPaymentHandler(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		http.Error(w, "Payment ID is required", http.StatusBadRequest)
		return
	}

	payment, err := h.service.FindPaymentByID(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to find payment", zap.String("payment_id", paymentID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponseFrom(payment), h.logger)
}

// MercadoPagoWebhookHandler finalizes a payment from a pushed processor
// notification. Notifications that do not announce a completed payment
// creation are discarded with a no-op.
func (h *PaymentHandler) MercadoPagoWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get(WebhookKeyParam) != h.webhookKey {
		h.logger.Warn("Invalid Mercado Pago webhook key")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var webhook MercadoPagoWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
		h.logger.Error("Invalid webhook request body", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if webhook.Action != "payment.created" || webhook.Type != "payment" {
		h.logger.Debug("Ignoring non matching webhook notification",
			zap.String("action", webhook.Action),
			zap.String("type", webhook.Type),
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	payment, err := h.service.FinalizePaymentByProcessorPaymentID(r.Context(), webhook.Data.ID)
	if err != nil {
		h.writeFinalizeError(w, webhook.Data.ID, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponseFrom(payment), h.logger)
}

func (h *PaymentHandler) writeFinalizeError(w http.ResponseWriter, processorPaymentID string, err error) {
	var duplicateErr *domain.DuplicateExternalIDError
	var transitionErr *domain.InvalidTransitionError
	var apiErr *mercadopago.APIError

	switch {
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, mercadopago.ErrNotFound):
		http.Error(w, "Payment not found", http.StatusNotFound)
	case errors.As(err, &duplicateErr), errors.As(err, &transitionErr):
		h.logger.Warn("Conflicting finalize attempt",
			zap.String("processor_payment_id", processorPaymentID),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &apiErr):
		h.logger.Error("Processor lookup failed",
			zap.String("processor_payment_id", processorPaymentID),
			zap.Error(err),
		)
		http.Error(w, "Payment processor unavailable", http.StatusBadGateway)
	default:
		h.logger.Error("Failed to finalize payment",
			zap.String("processor_payment_id", processorPaymentID),
			zap.Error(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func paymentResponseFrom(payment *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              payment.ID,
		ExternalID:      payment.ExternalID,
		PaymentStatus:   string(payment.Status),
		TotalOrderValue: payment.TotalOrderValue,
		QRCode:          payment.QRCode,
		Expiration:      payment.Expiration.Format(time.RFC3339),
	}
	if !payment.CreatedAt.IsZero() {
		resp.CreatedAt = payment.CreatedAt.Format(time.RFC3339)
	}
	if !payment.Timestamp.IsZero() {
		resp.Timestamp = payment.Timestamp.Format(time.RFC3339)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write JSON response", zap.Error(err))
	}
}
