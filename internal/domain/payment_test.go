package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment_BuildsOpenedDraft(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	payment, err := NewPayment("A048", 45.0, now)
	require.NoError(t, err)

	assert.Equal(t, "A048", payment.ID)
	assert.Equal(t, "empty-A048", payment.ExternalID)
	assert.Equal(t, PaymentStatusOpened, payment.Status)
	assert.Equal(t, 45.0, payment.TotalOrderValue)
	assert.Empty(t, payment.QRCode)
	assert.Equal(t, now.Add(15*time.Minute), payment.Expiration)
	assert.True(t, payment.CreatedAt.IsZero())
	assert.True(t, payment.Timestamp.IsZero())
}

func TestNewPayment_NormalizesExpirationToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)

	payment, err := NewPayment("A048", 45.0, now)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, payment.Expiration.Location())
	assert.Equal(t, time.Date(2024, 1, 1, 12, 15, 0, 0, time.UTC), payment.Expiration)
}

func TestNewPayment_RejectsInvalidInput(t *testing.T) {
	_, err := NewPayment("", 45.0, time.Now())
	require.Error(t, err)

	_, err = NewPayment("  ", 45.0, time.Now())
	require.Error(t, err)

	_, err = NewPayment("A048", -1.0, time.Now())
	require.Error(t, err)
}

func TestFinalize_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		wantErr bool
	}{
		{"opened to closed", PaymentStatusOpened, PaymentStatusClosed, false},
		{"opened to expired", PaymentStatusOpened, PaymentStatusExpired, false},
		{"opened to opened", PaymentStatusOpened, PaymentStatusOpened, true},
		{"opened to unknown status", PaymentStatusOpened, PaymentStatus("FOO"), true},
		{"opened to empty status", PaymentStatusOpened, PaymentStatus(""), true},
		{"closed to closed", PaymentStatusClosed, PaymentStatusClosed, true},
		{"closed to expired", PaymentStatusClosed, PaymentStatusExpired, true},
		{"closed to opened", PaymentStatusClosed, PaymentStatusOpened, true},
		{"expired to closed", PaymentStatusExpired, PaymentStatusClosed, true},
		{"expired to opened", PaymentStatusExpired, PaymentStatusOpened, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := &Payment{ID: "A048", Status: tt.from}

			err := payment.Finalize(tt.to)
			if tt.wantErr {
				require.Error(t, err)

				var transitionErr *InvalidTransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, tt.from, transitionErr.From)
				assert.Equal(t, tt.to, transitionErr.To)
				assert.Equal(t, tt.from, payment.Status, "status must not change on a rejected transition")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, payment.Status)
		})
	}
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{From: PaymentStatusClosed, To: PaymentStatusExpired}
	assert.Equal(t, "unable to update a payment status from CLOSED to EXPIRED", err.Error())
}

func TestNewProduct_Validation(t *testing.T) {
	product, err := NewProduct("Product1", "food", 10.0, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, product.TotalValue())

	_, err = NewProduct("", "food", 10.0, 2)
	require.Error(t, err)

	_, err = NewProduct("Product1", "food", -0.01, 2)
	require.Error(t, err)

	_, err = NewProduct("Product1", "food", 10.0, -1)
	require.Error(t, err)
}

func TestProduct_ZeroQuantityIsAllowed(t *testing.T) {
	product, err := NewProduct("Product1", "food", 10.0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, product.TotalValue())
}
