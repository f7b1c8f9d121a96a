package postgres

import (
	"context"
	"fmt"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

const rentalColumns = `id, resource_id, renter_id, lessor_id, start_date, end_date, pickup_time, return_time, status, total_price_cents,
	delivery_requested, insurance_requested, cancellation_reason, cancellation_date, actual_return_date, special_notes, created_on, updated_on`

type rentalRepository struct {
	db DBTX
}

func NewRentalRepository(db DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	var rt domain.Rental
	err := row.Scan(&rt.ID, &rt.ResourceID, &rt.RenterID, &rt.LessorID, &rt.StartDate, &rt.EndDate, &rt.PickupTime, &rt.ReturnTime,
		&rt.Status, &rt.TotalPriceCents, &rt.DeliveryRequested, &rt.InsuranceRequested, &rt.CancellationReason,
		&rt.CancellationDate, &rt.ActualReturnDate, &rt.SpecialNotes, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, err
	}
	rt.StartDate = domain.NormalizeDate(rt.StartDate)
	rt.EndDate = domain.NormalizeDate(rt.EndDate)
	return &rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	query := `INSERT INTO rentals (id, resource_id, renter_id, lessor_id, start_date, end_date, pickup_time, return_time, status, total_price_cents,
	          delivery_requested, insurance_requested, special_notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()) RETURNING created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query, rt.ID, rt.ResourceID, rt.RenterID, rt.LessorID, rt.StartDate, rt.EndDate,
		rt.PickupTime, rt.ReturnTime, rt.Status, rt.TotalPriceCents, rt.DeliveryRequested, rt.InsuranceRequested, rt.SpecialNotes,
	).Scan(&rt.CreatedOn, &rt.UpdatedOn)
	return mapError(err)
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, rt *domain.Rental, from domain.RentalStatus) error {
	query := `UPDATE rentals SET status=$1, cancellation_reason=$2, cancellation_date=$3, actual_return_date=$4, special_notes=$5, updated_on=NOW()
	          WHERE id=$6 AND status=$7`
	res, err := r.db.ExecContext(ctx, query, rt.Status, rt.CancellationReason, rt.CancellationDate, rt.ActualReturnDate, rt.SpecialNotes, rt.ID, from)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStaleStatus
	}
	return nil
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.listByParty(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *rentalRepository) ListByLessor(ctx context.Context, lessorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.listByParty(ctx, "lessor_id", lessorID, status, page, pageSize)
}

func (r *rentalRepository) listByParty(ctx context.Context, column, userID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	sql := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + column + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		sql += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") as sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rentals, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return rentals, count, nil
}

func (r *rentalRepository) ListEndingBefore(ctx context.Context, status domain.RentalStatus, before time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 AND end_date < $2 ORDER BY end_date`
	return r.query(ctx, query, status, domain.NormalizeDate(before))
}

func (r *rentalRepository) ListEndingOn(ctx context.Context, status domain.RentalStatus, day time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 AND end_date = $2 ORDER BY id`
	return r.query(ctx, query, status, domain.NormalizeDate(day))
}

func (r *rentalRepository) query(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) RecordStatusChange(ctx context.Context, c *domain.RentalStatusChange) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `INSERT INTO rental_status_changes (id, rental_id, from_status, to_status, actor_id, actor_role, note, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_on`
	return r.db.QueryRowContext(ctx, query, c.ID, c.RentalID, c.From, c.To, c.ActorID, c.ActorRole, c.Note).Scan(&c.CreatedOn)
}

func (r *rentalRepository) ListStatusChanges(ctx context.Context, rentalID string) ([]domain.RentalStatusChange, error) {
	query := `SELECT id, rental_id, from_status, to_status, actor_id, actor_role, note, created_on
	          FROM rental_status_changes WHERE rental_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []domain.RentalStatusChange
	for rows.Next() {
		var c domain.RentalStatusChange
		if err := rows.Scan(&c.ID, &c.RentalID, &c.From, &c.To, &c.ActorID, &c.ActorRole, &c.Note, &c.CreatedOn); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
