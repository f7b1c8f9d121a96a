package postgres

import (
	"context"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

type resourceRepository struct {
	db DBTX
}

func NewResourceRepository(db DBTX) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.AvailableWeekdays == 0 {
		res.AvailableWeekdays = domain.AllWeekdays
	}
	query := `INSERT INTO resources (id, owner_id, name, price_per_day_cents, price_per_week_cents, price_per_month_cents,
	          delivery_fee_cents, security_deposit_cents, insurance_fee_cents, available_weekdays, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query, res.ID, res.OwnerID, res.Name, res.PricePerDayCents, res.PricePerWeekCents,
		res.PricePerMonthCents, res.DeliveryFeeCents, res.SecurityDepositCents, res.InsuranceFeeCents, int16(res.AvailableWeekdays),
	).Scan(&res.CreatedOn, &res.UpdatedOn)
	return mapError(err)
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	res := &domain.Resource{}
	var mask int16
	query := `SELECT id, owner_id, name, price_per_day_cents, price_per_week_cents, price_per_month_cents,
	          delivery_fee_cents, security_deposit_cents, insurance_fee_cents, available_weekdays, created_on, updated_on
	          FROM resources WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&res.ID, &res.OwnerID, &res.Name, &res.PricePerDayCents, &res.PricePerWeekCents,
		&res.PricePerMonthCents, &res.DeliveryFeeCents, &res.SecurityDepositCents, &res.InsuranceFeeCents, &mask, &res.CreatedOn, &res.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	res.AvailableWeekdays = domain.WeekdayMask(mask)
	return res, nil
}

func (r *resourceRepository) UpdateWeeklySchedule(ctx context.Context, id string, mask domain.WeekdayMask) error {
	res, err := r.db.ExecContext(ctx, `UPDATE resources SET available_weekdays=$1, updated_on=NOW() WHERE id=$2`, int16(mask), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
