package postgres

import (
	"context"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

const paymentColumns = `id, rental_id, amount_cents, currency, status, external_intent_id, created_on, updated_on`

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	var p domain.PaymentRecord
	if err := row.Scan(&p.ID, &p.RentalID, &p.AmountCents, &p.Currency, &p.Status, &p.ExternalIntentID, &p.CreatedOn, &p.UpdatedOn); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO payments (id, rental_id, amount_cents, currency, status, external_intent_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_on, updated_on`
	logger.DatabaseCall("INSERT", "payments", "rentalID", p.RentalID, "intentID", p.ExternalIntentID)
	err := r.db.QueryRowContext(ctx, query, p.ID, p.RentalID, p.AmountCents, p.Currency, p.Status, p.ExternalIntentID).Scan(&p.CreatedOn, &p.UpdatedOn)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	return mapError(err)
}

func (r *paymentRepository) GetByRentalID(ctx context.Context, rentalID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE rental_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, rentalID))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_intent_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, intentID))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.PaymentRecord) error {
	query := `UPDATE payments SET amount_cents=$1, currency=$2, status=$3, external_intent_id=$4, updated_on=NOW() WHERE id=$5`
	logger.DatabaseCall("UPDATE", "payments", "paymentID", p.ID, "status", p.Status)
	res, err := r.db.ExecContext(ctx, query, p.AmountCents, p.Currency, p.Status, p.ExternalIntentID, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListPendingBefore(ctx context.Context, before time.Time) ([]domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = 'PENDING' AND updated_on < $1 ORDER BY updated_on`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	query := `INSERT INTO payment_webhooks (id, provider, intent_id, status, signature, body, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_on`
	return r.db.QueryRowContext(ctx, query, w.ID, w.Provider, w.IntentID, w.Status, w.Signature, w.Body).Scan(&w.CreatedOn)
}
