package payments_http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payments/internal/app/payments"
	"payments/internal/domain"
	"payments/internal/mercadopago"
)

type stubService struct {
	findFn     func(ctx context.Context, id string) (*domain.Payment, error)
	finalizeFn func(ctx context.Context, processorPaymentID string) (*domain.Payment, error)

	finalizeCalls []string
}

func (s *stubService) CreatePaymentFromOrder(ctx context.Context, cmd payments.CreatePaymentCommand) (*domain.Payment, error) {
	return nil, errors.New("not implemented")
}

func (s *stubService) FinalizePaymentByProcessorPaymentID(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
	s.finalizeCalls = append(s.finalizeCalls, processorPaymentID)
	return s.finalizeFn(ctx, processorPaymentID)
}

func (s *stubService) FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	return s.findFn(ctx, id)
}

const testWebhookKey = "test-webhook-key"

const webhookPath = "/v1/payments/notifications/mercado-pago"

// webhookURL carries the notification key the way Mercado Pago appends it to
// the configured callback.
const webhookURL = webhookPath + "?" + WebhookKeyParam + "=" + testWebhookKey

func newTestRouter(service payments.PaymentService) chi.Router {
	router := chi.NewRouter()
	RegisterRoutes(router, service, testWebhookKey, zap.NewNop())
	return router
}

func storedPayment() *domain.Payment {
	return &domain.Payment{
		ID:              "A048",
		ExternalID:      "123",
		Status:          domain.PaymentStatusClosed,
		TotalOrderValue: 45.0,
		QRCode:          "sample-qr-code-data",
		Expiration:      time.Date(2024, 1, 1, 12, 15, 0, 0, time.UTC),
		CreatedAt:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Timestamp:       time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC),
	}
}

func TestFindPayment_ReturnsPayment(t *testing.T) {
	service := &stubService{
		findFn: func(ctx context.Context, id string) (*domain.Payment, error) {
			assert.Equal(t, "A048", id)
			return storedPayment(), nil
		},
	}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/A048", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A048", resp.ID)
	assert.Equal(t, "123", resp.ExternalID)
	assert.Equal(t, "CLOSED", resp.PaymentStatus)
	assert.Equal(t, "sample-qr-code-data", resp.QRCode)
	assert.Equal(t, "2024-01-01T12:15:00Z", resp.Expiration)
	assert.Equal(t, "2024-01-01T12:00:00Z", resp.CreatedAt)
}

func TestFindPayment_NotFound(t *testing.T) {
	service := &stubService{
		findFn: func(ctx context.Context, id string) (*domain.Payment, error) {
			return nil, domain.ErrPaymentNotFound
		},
	}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func webhookBody(action, typ, id string) *strings.Reader {
	return strings.NewReader(`{"action": "` + action + `", "type": "` + typ + `", "data": {"id": "` + id + `"}}`)
}

func TestWebhook_FinalizesPayment(t *testing.T) {
	service := &stubService{
		finalizeFn: func(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
			return storedPayment(), nil
		},
	}
	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		webhookURL, webhookBody("payment.created", "payment", "pay-55001")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pay-55001"}, service.finalizeCalls)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CLOSED", resp.PaymentStatus)
}

func TestWebhook_NonMatchingNotificationIsNoOp(t *testing.T) {
	service := &stubService{
		finalizeFn: func(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
			t.Fatal("finalize must not be called for a non matching notification")
			return nil, nil
		},
	}
	router := newTestRouter(service)

	tests := []struct {
		name   string
		action string
		typ    string
	}{
		{"wrong action", "payment.updated", "payment"},
		{"wrong type", "payment.created", "merchant_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				webhookURL, webhookBody(tt.action, tt.typ, "pay-55001")))

			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}
	assert.Empty(t, service.finalizeCalls)
}

func TestWebhook_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"duplicate external id", &domain.DuplicateExternalIDError{ExternalID: "123"}, http.StatusConflict},
		{"invalid transition", &domain.InvalidTransitionError{From: domain.PaymentStatusClosed, To: domain.PaymentStatusClosed}, http.StatusConflict},
		{"local payment missing", domain.ErrPaymentNotFound, http.StatusNotFound},
		{"processor resource missing", mercadopago.ErrNotFound, http.StatusNotFound},
		{"processor unavailable", &mercadopago.APIError{StatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway},
		{"publish failure", &domain.EventPublishingError{Err: errors.New("broker down")}, http.StatusInternalServerError},
		{"storage fault", &domain.PersistenceError{Op: "save", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubService{
				finalizeFn: func(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(service)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				webhookURL, webhookBody("payment.created", "payment", "pay-55001")))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestWebhook_RejectsInvalidKey(t *testing.T) {
	service := &stubService{
		finalizeFn: func(ctx context.Context, processorPaymentID string) (*domain.Payment, error) {
			t.Fatal("finalize must not be called for an unauthorized notification")
			return nil, nil
		},
	}
	router := newTestRouter(service)

	tests := []struct {
		name string
		url  string
	}{
		{"missing key", webhookPath},
		{"wrong key", webhookPath + "?" + WebhookKeyParam + "=wrong-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
				tt.url, webhookBody("payment.created", "payment", "pay-55001")))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	assert.Empty(t, service.finalizeCalls)
}

func TestWebhook_InvalidBody(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		webhookURL, strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
