package payments_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go.uber.org/zap"

	"payments/internal/app/payments"
)

func RegisterRoutes(r chi.Router, s payments.PaymentService, webhookKey string, l *zap.Logger) {
	handler := NewPaymentHandler(s, webhookKey, l.With(zap.String("component", "PaymentHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Payments service is healthy!"))
		})
	})

	r.Route("/v1/payments", func(r chi.Router) {
		r.Get("/{id}", handler.FindPaymentHandler)
		r.Post("/notifications/mercado-pago", handler.MercadoPagoWebhookHandler)
	})
}
