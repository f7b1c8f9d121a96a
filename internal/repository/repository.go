package repository

import (
	"context"
	"errors"
	"time"

	"trailerhub-backend/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrOverlap is returned when an insert or update would make two holders'
	// intervals on the same resource intersect.
	ErrOverlap = errors.New("blocked interval overlaps another holder")
	// ErrStaleStatus is returned by guarded status updates when the row is no
	// longer in the expected status.
	ErrStaleStatus = errors.New("rental status changed concurrently")
	ErrDuplicate   = errors.New("duplicate record")
)

type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	UpdateWeeklySchedule(ctx context.Context, id string, mask domain.WeekdayMask) error
}

type BlockedIntervalRepository interface {
	Create(ctx context.Context, b *domain.BlockedInterval) error
	GetByID(ctx context.Context, id string) (*domain.BlockedInterval, error)
	ListByTag(ctx context.Context, tag domain.BlockTag) ([]domain.BlockedInterval, error)
	// FindOverlapping returns intervals on resourceID intersecting r, except
	// HOLD intervals of excludeHolderID. That holder's RENTAL and MANUAL
	// intervals still conflict.
	FindOverlapping(ctx context.Context, resourceID string, r domain.DateRange, excludeHolderID string) ([]domain.BlockedInterval, error)
	ListByResource(ctx context.Context, resourceID string, r domain.DateRange) ([]domain.BlockedInterval, error)
	// DeleteHoldsByHolder removes holderID's HOLD intervals on resourceID
	// except the one tagged with keepIntentID.
	DeleteHoldsByHolder(ctx context.Context, resourceID, holderID, keepIntentID string) (int64, error)
	DeleteByTag(ctx context.Context, tag domain.BlockTag) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	// Retag rewrites the tag of matching intervals in place.
	Retag(ctx context.Context, from, to domain.BlockTag) (int64, error)
	ListHoldsCreatedBefore(ctx context.Context, before time.Time) ([]domain.BlockedInterval, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	// UpdateStatus persists the rental's status and side-effect fields only if
	// the stored status still equals from.
	UpdateStatus(ctx context.Context, rental *domain.Rental, from domain.RentalStatus) error
	ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByLessor(ctx context.Context, lessorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListEndingBefore(ctx context.Context, status domain.RentalStatus, before time.Time) ([]domain.Rental, error)
	ListEndingOn(ctx context.Context, status domain.RentalStatus, day time.Time) ([]domain.Rental, error)
	RecordStatusChange(ctx context.Context, change *domain.RentalStatusChange) error
	ListStatusChanges(ctx context.Context, rentalID string) ([]domain.RentalStatusChange, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PaymentRecord) error
	GetByRentalID(ctx context.Context, rentalID string) (*domain.PaymentRecord, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.PaymentRecord, error)
	Update(ctx context.Context, p *domain.PaymentRecord) error
	ListPendingBefore(ctx context.Context, before time.Time) ([]domain.PaymentRecord, error)
	RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error
}

type DamageReportRepository interface {
	Create(ctx context.Context, d *domain.DamageReport) error
	GetByID(ctx context.Context, id string) (*domain.DamageReport, error)
	Update(ctx context.Context, d *domain.DamageReport) error
	ListByRental(ctx context.Context, rentalID string) ([]domain.DamageReport, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID string) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Resources     ResourceRepository
	Blocks        BlockedIntervalRepository
	Rentals       RentalRepository
	Payments      PaymentRepository
	Damage        DamageReportRepository
	Notifications NotificationRepository
}

// Transactor runs units of work atomically.
type Transactor interface {
	// WithinTx runs fn in one transaction; an error rolls everything back.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinResourceLock runs fn in one transaction that holds the exclusive
	// calendar lock of resourceID until commit or rollback.
	WithinResourceLock(ctx context.Context, resourceID string, fn func(r Repos) error) error
}
