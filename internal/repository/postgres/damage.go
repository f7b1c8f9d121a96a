package postgres

import (
	"context"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const damageColumns = `id, rental_id, resource_id, reporter_id, status, severity, description, repair_cost_cents, photo_urls, created_on, updated_on`

type damageReportRepository struct {
	db DBTX
}

func NewDamageReportRepository(db DBTX) repository.DamageReportRepository {
	return &damageReportRepository{db: db}
}

func scanDamage(row rowScanner) (*domain.DamageReport, error) {
	var d domain.DamageReport
	err := row.Scan(&d.ID, &d.RentalID, &d.ResourceID, &d.ReporterID, &d.Status, &d.Severity, &d.Description,
		&d.RepairCostCents, pq.Array(&d.PhotoURLs), &d.CreatedOn, &d.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *damageReportRepository) Create(ctx context.Context, d *domain.DamageReport) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	photos := d.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	query := `INSERT INTO damage_reports (id, rental_id, resource_id, reporter_id, status, severity, description, repair_cost_cents, photo_urls, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query, d.ID, d.RentalID, d.ResourceID, d.ReporterID, d.Status, d.Severity, d.Description,
		d.RepairCostCents, pq.Array(photos)).Scan(&d.CreatedOn, &d.UpdatedOn)
	return mapError(err)
}

func (r *damageReportRepository) GetByID(ctx context.Context, id string) (*domain.DamageReport, error) {
	d, err := scanDamage(r.db.QueryRowContext(ctx, `SELECT `+damageColumns+` FROM damage_reports WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *damageReportRepository) Update(ctx context.Context, d *domain.DamageReport) error {
	query := `UPDATE damage_reports SET status=$1, repair_cost_cents=$2, updated_on=NOW() WHERE id=$3`
	res, err := r.db.ExecContext(ctx, query, d.Status, d.RepairCostCents, d.ID)
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

func (r *damageReportRepository) ListByRental(ctx context.Context, rentalID string) ([]domain.DamageReport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+damageColumns+` FROM damage_reports WHERE rental_id = $1 ORDER BY created_on`, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.DamageReport
	for rows.Next() {
		d, err := scanDamage(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *d)
	}
	return reports, rows.Err()
}
