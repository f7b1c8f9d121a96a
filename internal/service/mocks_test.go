package service_test

import (
	"context"
	"testing"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
	"trailerhub-backend/internal/repository/memory"
	"trailerhub-backend/internal/service"
	"trailerhub-backend/internal/utils"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) {
	args := m.Called(ctx, amountCents, currency, metadata)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockPaymentService) LookupIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}
func (m *MockPaymentService) CancelIntent(ctx context.Context, intentID string) (gateway.IntentStatus, error) {
	args := m.Called(ctx, intentID)
	return args.Get(0).(gateway.IntentStatus), args.Error(1)
}
func (m *MockPaymentService) RetryIntent(ctx context.Context, actor domain.Actor, rentalID string) (string, string, error) {
	args := m.Called(ctx, actor, rentalID)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *MockPaymentService) CaptureIntent(ctx context.Context, actor domain.Actor, rentalID string, amountCents *int64) (domain.PaymentStatus, error) {
	args := m.Called(ctx, actor, rentalID, amountCents)
	return args.Get(0).(domain.PaymentStatus), args.Error(1)
}
func (m *MockPaymentService) HandleGatewayEvent(ctx context.Context, intentID string, status gateway.IntentStatus) error {
	args := m.Called(ctx, intentID, status)
	return args.Error(0)
}
func (m *MockPaymentService) SyncIntent(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}
func (m *MockPaymentService) RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
func (m *MockPaymentService) ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

// MockAvailabilityService
type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) CreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) (*domain.BlockedInterval, error) {
	args := m.Called(ctx, resourceID, r, holderID, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedInterval), args.Error(1)
}
func (m *MockAvailabilityService) TryCreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) *domain.BlockedInterval {
	args := m.Called(ctx, resourceID, r, holderID, intentID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.BlockedInterval)
}
func (m *MockAvailabilityService) ReleaseHold(ctx context.Context, intentID string) bool {
	return m.Called(ctx, intentID).Bool(0)
}
func (m *MockAvailabilityService) FinalizeHold(ctx context.Context, intentID, rentalID string) bool {
	return m.Called(ctx, intentID, rentalID).Bool(0)
}
func (m *MockAvailabilityService) IsDateBlocked(ctx context.Context, resourceID string, d time.Time) (*domain.BlockedInterval, error) {
	args := m.Called(ctx, resourceID, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedInterval), args.Error(1)
}
func (m *MockAvailabilityService) IsDayAvailableBySchedule(ctx context.Context, resourceID string, d time.Time) (bool, error) {
	args := m.Called(ctx, resourceID, d)
	return args.Bool(0), args.Error(1)
}
func (m *MockAvailabilityService) BlockDates(ctx context.Context, actor domain.Actor, resourceID string, r domain.DateRange, reason string, slots []domain.TimeSlot) (*domain.BlockedInterval, error) {
	args := m.Called(ctx, actor, resourceID, r, reason, slots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlockedInterval), args.Error(1)
}
func (m *MockAvailabilityService) UnblockDates(ctx context.Context, actor domain.Actor, blockID string) error {
	return m.Called(ctx, actor, blockID).Error(0)
}
func (m *MockAvailabilityService) UpdateWeeklySchedule(ctx context.Context, actor domain.Actor, resourceID string, mask domain.WeekdayMask) error {
	return m.Called(ctx, actor, resourceID, mask).Error(0)
}
func (m *MockAvailabilityService) GetCalendar(ctx context.Context, resourceID string, r domain.DateRange) ([]domain.BlockedInterval, error) {
	args := m.Called(ctx, resourceID, r)
	return args.Get(0).([]domain.BlockedInterval), args.Error(1)
}
func (m *MockAvailabilityService) BlockForRental(ctx context.Context, rental *domain.Rental) error {
	return m.Called(ctx, rental).Error(0)
}
func (m *MockAvailabilityService) ReleaseRental(ctx context.Context, rentalID string) bool {
	return m.Called(ctx, rentalID).Bool(0)
}
func (m *MockAvailabilityService) SweepStaleHolds(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

// failingTransactor rejects every unit of work, simulating a lost database.
type failingTransactor struct{ err error }

func (f failingTransactor) WithinTx(context.Context, func(repository.Repos) error) error { return f.err }
func (f failingTransactor) WithinResourceLock(context.Context, string, func(repository.Repos) error) error {
	return f.err
}

func newMockedReservations(t *testing.T, tx repository.Transactor) (service.ReservationService, *MockPaymentService, *MockAvailabilityService) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Resources.Create(context.Background(), &domain.Resource{
		ID: "res-1", OwnerID: "lessor-1", PricePerDayCents: 2000, AvailableWeekdays: domain.AllWeekdays,
	}))
	if tx == nil {
		tx = store
	}
	payments := new(MockPaymentService)
	availability := new(MockAvailabilityService)
	svc := service.NewReservationService(tx, store.Repos, service.NewPricingService(store.Resources, utils.DefaultRates),
		availability, payments, nil, metrics.New(), service.ReservationOptions{Currency: "eur"})
	return svc, payments, availability
}
