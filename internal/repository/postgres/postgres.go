package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db *sql.DB
	repository.Repos
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		Repos: newRepos(db),
	}
}

func newRepos(q DBTX) repository.Repos {
	return repository.Repos{
		Resources:     NewResourceRepository(q),
		Blocks:        NewBlockedIntervalRepository(q),
		Rentals:       NewRentalRepository(q),
		Payments:      NewPaymentRepository(q),
		Damage:        NewDamageReportRepository(q),
		Notifications: NewNotificationRepository(q),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(newRepos(tx))
	})
}

// WithinResourceLock serializes calendar writers of one resource across all
// server instances with a transaction-scoped advisory lock. The lock is
// released by commit or rollback.
func (s *Store) WithinResourceLock(ctx context.Context, resourceID string, fn func(r repository.Repos) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		logger.DatabaseCall("LOCK", "pg_advisory_xact_lock", "resourceID", resourceID)
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resourceID); err != nil {
			logger.DatabaseResult("LOCK", 0, err, "resourceID", resourceID)
			return fmt.Errorf("failed to lock resource calendar: %w", err)
		}
		return fn(newRepos(tx))
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23P01": // exclusion_violation
			return fmt.Errorf("%w: %s", repository.ErrOverlap, pqErr.Constraint)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
		}
	}
	return err
}
