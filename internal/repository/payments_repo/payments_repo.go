package payments_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"payments/internal/domain"
)

const paymentColumns = `id, external_id, status, total_order_value, qr_code, expiration, created_at, "timestamp"`

// PaymentRepository persists the payment aggregate in PostgreSQL. Concurrent
// finalizes of one payment are fenced by the conditional upsert in Save;
// the external_id unique index fences distinct payments claiming one
// processor order.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, domain.ErrPaymentNotFound)
		}
		return nil, &domain.PersistenceError{Op: fmt.Sprintf("find payment by id %s", id), Err: err}
	}
	return payment, nil
}

func (r *PaymentRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, &domain.PersistenceError{Op: fmt.Sprintf("check payment existence by id %s", id), Err: err}
	}
	return exists, nil
}

func (r *PaymentRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE external_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, externalID).Scan(&exists); err != nil {
		return false, &domain.PersistenceError{Op: fmt.Sprintf("check payment existence by external id %s", externalID), Err: err}
	}
	return exists, nil
}

// Save upserts by primary id in a single statement, so concurrent readers
// never observe partial column writes. The conflict update only applies while
// the stored row is still OPENED: a finalize that lost the race to another
// finalize blocks on the winner's row lock, re-evaluates the condition against
// the committed row, matches nothing and comes back as a duplicate. The stored
// row comes back with the server-assigned created_at and "timestamp".
func (r *PaymentRepository) Save(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		INSERT INTO payments (id, external_id, status, total_order_value, qr_code, expiration)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			status = EXCLUDED.status,
			total_order_value = EXCLUDED.total_order_value,
			qr_code = EXCLUDED.qr_code,
			expiration = EXCLUDED.expiration,
			"timestamp" = now()
		WHERE payments.status = $7
		RETURNING %s`, paymentColumns)

	qrCode := sql.NullString{String: payment.QRCode, Valid: payment.QRCode != ""}
	saved, err := scanPayment(r.db.QueryRowContext(ctx, query,
		payment.ID,
		payment.ExternalID,
		payment.Status,
		payment.TotalOrderValue,
		qrCode,
		payment.Expiration,
		domain.PaymentStatusOpened,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.DuplicateExternalIDError{ExternalID: payment.ExternalID}
		}
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return nil, &domain.DuplicateExternalIDError{ExternalID: payment.ExternalID}
		}
		return nil, &domain.PersistenceError{Op: fmt.Sprintf("save payment %s", payment.ID), Err: err}
	}
	return saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	payment := &domain.Payment{}
	var qrCode sql.NullString
	err := row.Scan(
		&payment.ID,
		&payment.ExternalID,
		&payment.Status,
		&payment.TotalOrderValue,
		&qrCode,
		&payment.Expiration,
		&payment.CreatedAt,
		&payment.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	payment.QRCode = qrCode.String
	return payment, nil
}
