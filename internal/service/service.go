package service

import (
	"context"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/utils"
)

type PricingService interface {
	GetQuote(ctx context.Context, resourceID string, r domain.DateRange, opts utils.QuoteOptions) (*domain.PriceQuote, error)
}

type AvailabilityService interface {
	CreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) (*domain.BlockedInterval, error)
	TryCreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) *domain.BlockedInterval
	ReleaseHold(ctx context.Context, intentID string) bool
	FinalizeHold(ctx context.Context, intentID, rentalID string) bool
	IsDateBlocked(ctx context.Context, resourceID string, day time.Time) (*domain.BlockedInterval, error)
	IsDayAvailableBySchedule(ctx context.Context, resourceID string, day time.Time) (bool, error)
	BlockDates(ctx context.Context, actor domain.Actor, resourceID string, r domain.DateRange, reason string, slots []domain.TimeSlot) (*domain.BlockedInterval, error)
	UnblockDates(ctx context.Context, actor domain.Actor, blockID string) error
	UpdateWeeklySchedule(ctx context.Context, actor domain.Actor, resourceID string, mask domain.WeekdayMask) error
	GetCalendar(ctx context.Context, resourceID string, r domain.DateRange) ([]domain.BlockedInterval, error)
	BlockForRental(ctx context.Context, rental *domain.Rental) error
	ReleaseRental(ctx context.Context, rentalID string) bool
	SweepStaleHolds(ctx context.Context, olderThan time.Duration) (int, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) // returns intentID, clientSecret
	LookupIntent(ctx context.Context, intentID string) (*gateway.Intent, error)
	CancelIntent(ctx context.Context, intentID string) (gateway.IntentStatus, error)
	RetryIntent(ctx context.Context, actor domain.Actor, rentalID string) (string, string, error) // returns new intentID, clientSecret
	CaptureIntent(ctx context.Context, actor domain.Actor, rentalID string, amountCents *int64) (domain.PaymentStatus, error)
	HandleGatewayEvent(ctx context.Context, intentID string, status gateway.IntentStatus) error
	SyncIntent(ctx context.Context, intentID string) error
	RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error
	ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type ReservationService interface {
	CreateReservation(ctx context.Context, req ReservationRequest) (*ReservationResult, error)
}

type RentalService interface {
	TransitionStatus(ctx context.Context, actor domain.Actor, rentalID string, to domain.RentalStatus, note string) (*domain.Rental, error)
	GetRental(ctx context.Context, actor domain.Actor, rentalID string) (*domain.Rental, error)
	ListRentals(ctx context.Context, actor domain.Actor, asLessor bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	History(ctx context.Context, actor domain.Actor, rentalID string) ([]domain.RentalStatusChange, error)
	MarkLateReturns(ctx context.Context, asOf time.Time) (int, error)
	SendReturnReminders(ctx context.Context, day time.Time) (int, error)
}

type DamageService interface {
	ReportDamage(ctx context.Context, actor domain.Actor, in DamageInput) (*domain.DamageReport, error)
	RespondToDamageReport(ctx context.Context, actor domain.Actor, reportID string, accept bool) (*domain.DamageReport, error)
	ListDamageReports(ctx context.Context, actor domain.Actor, rentalID string) ([]domain.DamageReport, error)
}

// DamagePhotoService hands out upload URLs for photos attached to damage reports.
type DamagePhotoService interface {
	RequestUpload(ctx context.Context, actor domain.Actor, rentalID, contentType string) (*PhotoUpload, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, actor domain.Actor, notificationID string) error
}

// ReservationRequest is the create-reservation payload. Totals are what the
// client was shown and are re-validated against a fresh server quote.
type ReservationRequest struct {
	ResourceID      string
	RenterID        string
	StartDate       time.Time
	EndDate         time.Time
	PickupTime      string
	ReturnTime      string
	TotalPriceCents int64
	ServiceFeeCents int64
	PaymentIntentID string
	TermsAccepted   bool
	Options         utils.QuoteOptions
	SpecialNotes    string
}

type ReservationResult struct {
	Rental       *domain.Rental
	Quote        domain.PriceQuote
	IntentID     string
	ClientSecret string
}

type DamageInput struct {
	RentalID        string
	Description     string
	Severity        domain.DamageSeverity
	PhotoURLs       []string
	RepairCostCents *int64
}
