package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

const blockColumns = `id, resource_id, holder_id, start_date, end_date, all_day, time_slots, kind, ref_id, reason, created_on, updated_on`

type blockedIntervalRepository struct {
	db DBTX
}

func NewBlockedIntervalRepository(db DBTX) repository.BlockedIntervalRepository {
	return &blockedIntervalRepository{db: db}
}

func scanBlock(row rowScanner) (*domain.BlockedInterval, error) {
	var (
		b     domain.BlockedInterval
		slots []byte
		kind  string
		refID sql.NullString
	)
	err := row.Scan(&b.ID, &b.ResourceID, &b.HolderID, &b.StartDate, &b.EndDate, &b.AllDay, &slots, &kind, &refID, &b.Tag.Reason, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	b.StartDate = domain.NormalizeDate(b.StartDate)
	b.EndDate = domain.NormalizeDate(b.EndDate)
	b.Tag.Kind = domain.BlockKind(kind)
	b.Tag.RefID = refID.String
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &b.TimeSlots); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func (r *blockedIntervalRepository) queryBlocks(ctx context.Context, query string, args ...any) ([]domain.BlockedInterval, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var blocks []domain.BlockedInterval
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

func refIDArg(tag domain.BlockTag) sql.NullString {
	return sql.NullString{String: tag.RefID, Valid: tag.Kind != domain.BlockKindManual}
}

func (r *blockedIntervalRepository) Create(ctx context.Context, b *domain.BlockedInterval) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	var slots any
	if len(b.TimeSlots) > 0 {
		raw, err := json.Marshal(b.TimeSlots)
		if err != nil {
			return err
		}
		slots = raw
	}

	query := `INSERT INTO blocked_intervals (id, resource_id, holder_id, start_date, end_date, all_day, time_slots, kind, ref_id, reason, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING created_on, updated_on`
	logger.DatabaseCall("INSERT", "blocked_intervals", "resourceID", b.ResourceID, "holderID", b.HolderID, "tag", b.Tag.String())

	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.ResourceID, b.HolderID, domain.NormalizeDate(b.StartDate), domain.NormalizeDate(b.EndDate),
		b.AllDay, slots, string(b.Tag.Kind), refIDArg(b.Tag), b.Tag.Reason,
	).Scan(&b.CreatedOn, &b.UpdatedOn)
	logger.DatabaseResult("INSERT", 1, err, "blockID", b.ID)
	return mapError(err)
}

func (r *blockedIntervalRepository) GetByID(ctx context.Context, id string) (*domain.BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals WHERE id = $1`
	b, err := scanBlock(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *blockedIntervalRepository) ListByTag(ctx context.Context, tag domain.BlockTag) ([]domain.BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals WHERE kind = $1 AND ref_id = $2 ORDER BY start_date`
	return r.queryBlocks(ctx, query, string(tag.Kind), tag.RefID)
}

func (r *blockedIntervalRepository) FindOverlapping(ctx context.Context, resourceID string, dr domain.DateRange, excludeHolderID string) ([]domain.BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals
	          WHERE resource_id = $1 AND NOT (holder_id = $2 AND kind = 'HOLD')
	          AND start_date <= $3 AND end_date >= $4
	          ORDER BY start_date`
	logger.DatabaseCall("SELECT", "blocked_intervals overlap", "resourceID", resourceID, "range", dr.String())
	blocks, err := r.queryBlocks(ctx, query, resourceID, excludeHolderID, domain.NormalizeDate(dr.End), domain.NormalizeDate(dr.Start))
	logger.DatabaseResult("SELECT", int64(len(blocks)), err)
	return blocks, err
}

func (r *blockedIntervalRepository) ListByResource(ctx context.Context, resourceID string, dr domain.DateRange) ([]domain.BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals
	          WHERE resource_id = $1 AND start_date <= $2 AND end_date >= $3
	          ORDER BY start_date`
	return r.queryBlocks(ctx, query, resourceID, domain.NormalizeDate(dr.End), domain.NormalizeDate(dr.Start))
}

func (r *blockedIntervalRepository) DeleteHoldsByHolder(ctx context.Context, resourceID, holderID, keepIntentID string) (int64, error) {
	query := `DELETE FROM blocked_intervals WHERE resource_id = $1 AND holder_id = $2 AND kind = 'HOLD' AND ref_id <> $3`
	return r.exec(ctx, "DELETE", query, resourceID, holderID, keepIntentID)
}

func (r *blockedIntervalRepository) DeleteByTag(ctx context.Context, tag domain.BlockTag) (int64, error) {
	query := `DELETE FROM blocked_intervals WHERE kind = $1 AND ref_id = $2`
	return r.exec(ctx, "DELETE", query, string(tag.Kind), tag.RefID)
}

func (r *blockedIntervalRepository) DeleteByID(ctx context.Context, id string) error {
	n, err := r.exec(ctx, "DELETE", `DELETE FROM blocked_intervals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *blockedIntervalRepository) Retag(ctx context.Context, from, to domain.BlockTag) (int64, error) {
	query := `UPDATE blocked_intervals SET kind = $1, ref_id = $2, updated_on = NOW() WHERE kind = $3 AND ref_id = $4`
	return r.exec(ctx, "UPDATE", query, string(to.Kind), refIDArg(to), string(from.Kind), from.RefID)
}

func (r *blockedIntervalRepository) ListHoldsCreatedBefore(ctx context.Context, before time.Time) ([]domain.BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals WHERE kind = 'HOLD' AND created_on < $1 ORDER BY created_on`
	return r.queryBlocks(ctx, query, before)
}

func (r *blockedIntervalRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	logger.DatabaseCall(op, "blocked_intervals", "args", args)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(op, 0, err)
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult(op, n, err)
	return n, err
}
