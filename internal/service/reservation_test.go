package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateReservation_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	assert.Equal(t, domain.RentalStatusPending, res.Rental.Status)
	assert.Equal(t, "lessor-1", res.Rental.LessorID)
	assert.Equal(t, int64(6300), res.Rental.TotalPriceCents)
	assert.Equal(t, int64(6000), res.Quote.BasePrice)
	assert.Equal(t, int64(300), res.Quote.RenterServiceFee)
	assert.NotEmpty(t, res.IntentID)
	assert.NotEmpty(t, res.ClientSecret)

	holds := f.blocks(t, domain.HoldTag(res.IntentID))
	require.Len(t, holds, 1)
	assert.Equal(t, "renter-1", holds[0].HolderID)

	p, err := f.store.Payments.GetByRentalID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, res.IntentID, p.ExternalIntentID)
	assert.Equal(t, "eur", p.Currency)

	assert.Len(t, f.events.ofType(events.TypeRentalCreated), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Reservations.WithLabelValues("created")))
}

// Reserve, pay, cancel, and the same dates are bookable by someone else.
func TestCreateReservation_CancelFreesCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))
	rental, err := f.rentals.GetRental(ctx, renter1, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusConfirmed, rental.Status)
	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))
	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)

	cancelled, err := f.rentals.TransitionStatus(ctx, renter1, res.Rental.ID, domain.RentalStatusCancelled, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "plans changed", *cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancellationDate)
	assert.Empty(t, f.blocks(t, domain.RentalTag(res.Rental.ID)))

	again, err := f.reservations.CreateReservation(ctx, june1to3("renter-2"))
	require.NoError(t, err)
	assert.Equal(t, "renter-2", again.Rental.RenterID)
}

// A renter's confirmed rental blocks their own later overlapping booking.
func TestCreateReservation_OwnRentalStillConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))

	req := june1to3("renter-1")
	req.StartDate = day("2024-06-02")
	req.EndDate = day("2024-06-04")
	_, err = f.reservations.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDatesUnavailable)

	_, total, err := f.store.Rentals.ListByRenter(ctx, "renter-1", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)
}

func TestCreateReservation_PriceTolerance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := june1to3("renter-1")
	req.TotalPriceCents = 6302
	_, err := f.reservations.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, domain.ErrPricingMismatch)
	assert.Equal(t, 0, f.gw.CreateCalls())

	req.TotalPriceCents = 6301
	_, err = f.reservations.CreateReservation(ctx, req)
	assert.NoError(t, err)
}

func TestCreateReservation_ServiceFeeTampered(t *testing.T) {
	f := newFixture(t)

	req := june1to3("renter-1")
	req.ServiceFeeCents = 100
	_, err := f.reservations.CreateReservation(context.Background(), req)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodePricingMismatch, de.Code)
	assert.Equal(t, "serviceFee", de.Field)
}

func TestCreateReservation_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *service.ReservationRequest)
		want   error
	}{
		{"missing resource", func(r *service.ReservationRequest) { r.ResourceID = "" }, domain.ErrMissingField},
		{"terms not accepted", func(r *service.ReservationRequest) { r.TermsAccepted = false }, domain.ErrMissingField},
		{"same day range", func(r *service.ReservationRequest) { r.EndDate = r.StartDate }, domain.ErrInvalidRange},
		{"inverted range", func(r *service.ReservationRequest) { r.StartDate, r.EndDate = r.EndDate, r.StartDate }, domain.ErrInvalidRange},
		{"unknown resource", func(r *service.ReservationRequest) { r.ResourceID = "res-404" }, domain.ErrResourceNotFound},
		{"own listing", func(r *service.ReservationRequest) { r.RenterID = "lessor-1" }, domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := june1to3("renter-1")
			tt.mutate(&req)
			_, err := f.reservations.CreateReservation(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.gw.CreateCalls())
}

func TestCreateReservation_WeeklySchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 2024-06-01 is a Saturday.
	weekdays := domain.NewWeekdayMask(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	require.NoError(t, f.availability.UpdateWeeklySchedule(ctx, lessor, "res-1", weekdays))

	_, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeDatesUnavailable, de.Code)
	assert.True(t, de.Range.Start.Equal(day("2024-06-01")))
}

func TestCreateReservation_ConflictCancelsOrphanIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	req := june1to3("renter-2")
	req.StartDate, req.EndDate = day("2024-06-03"), day("2024-06-05")
	req.TotalPriceCents, req.ServiceFeeCents = 6300, 300
	_, err = f.reservations.CreateReservation(ctx, req)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeDatesUnavailable, de.Code)
	assert.Equal(t, "res-1", de.ResourceID)
	assert.Equal(t, "2024-06-01..2024-06-03", de.Range.String())

	assert.Equal(t, 2, f.gw.CreateCalls())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.HoldConflicts))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.GatewayCalls.WithLabelValues("cancel_intent", "ok")))
}

func TestCreateReservation_ConcurrentRentersNeverDoubleHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const renters = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < renters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.reservations.CreateReservation(ctx, june1to3(fmt.Sprintf("renter-%d", i+10)))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrDatesUnavailable)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	blocks, err := f.availability.GetCalendar(ctx, "res-1", domain.NewDateRange(day("2024-05-01"), day("2024-07-01")))
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestCreateReservation_ReplayWithSameIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in, err := f.gw.CreateIntent(ctx, gateway.CreateIntentRequest{AmountCents: 6300, Currency: "eur"})
	require.NoError(t, err)

	req := june1to3("renter-1")
	req.PaymentIntentID = in.ID
	first, err := f.reservations.CreateReservation(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, in.ID, first.IntentID)

	second, err := f.reservations.CreateReservation(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Rental.ID, second.Rental.ID)
	assert.Len(t, f.blocks(t, domain.HoldTag(in.ID)), 1)

	req.RenterID = "renter-2"
	_, err = f.reservations.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateReservation_IntentAmountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in, err := f.gw.CreateIntent(ctx, gateway.CreateIntentRequest{AmountCents: 100, Currency: "eur"})
	require.NoError(t, err)

	req := june1to3("renter-1")
	req.PaymentIntentID = in.ID
	_, err = f.reservations.CreateReservation(ctx, req)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "intentAmount", de.Field)
}

func TestCreateReservation_GatewayDown(t *testing.T) {
	f := newFixture(t)
	f.gw.FailNext(errors.New("connection refused"))

	_, err := f.reservations.CreateReservation(context.Background(), june1to3("renter-1"))
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, domain.KindExternal, domain.KindOf(err))

	blocks, err := f.availability.GetCalendar(context.Background(), "res-1", domain.NewDateRange(day("2024-06-01"), day("2024-06-03")))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestCreateReservation_HoldConflictCompensates(t *testing.T) {
	svc, payments, availability := newMockedReservations(t, nil)

	payments.On("CreateIntent", mock.Anything, int64(6300), "eur", mock.Anything).Return("pi_1", "secret_1", nil)
	availability.On("CreateHold", mock.Anything, "res-1", june, "renter-1", "pi_1").
		Return(nil, domain.NewDatesUnavailable("res-1", june))
	payments.On("CancelIntent", mock.Anything, "pi_1").Return(gateway.StatusCanceled, nil)

	_, err := svc.CreateReservation(context.Background(), june1to3("renter-1"))
	assert.ErrorIs(t, err, domain.ErrDatesUnavailable)

	payments.AssertExpectations(t)
	availability.AssertExpectations(t)
}

func TestCreateReservation_PersistFailureCompensates(t *testing.T) {
	dbDown := errors.New("connection reset")
	svc, payments, availability := newMockedReservations(t, failingTransactor{err: dbDown})

	payments.On("CreateIntent", mock.Anything, int64(6300), "eur", mock.Anything).Return("pi_1", "secret_1", nil)
	availability.On("CreateHold", mock.Anything, "res-1", june, "renter-1", "pi_1").
		Return(&domain.BlockedInterval{ID: "b-1"}, nil)
	payments.On("CancelIntent", mock.Anything, "pi_1").Return(gateway.StatusCanceled, nil)

	_, err := svc.CreateReservation(context.Background(), june1to3("renter-1"))
	assert.ErrorIs(t, err, dbDown)

	payments.AssertExpectations(t)
}

func TestCreateReservation_PriceMismatchNeverTouchesGateway(t *testing.T) {
	svc, payments, availability := newMockedReservations(t, nil)

	req := june1to3("renter-1")
	req.TotalPriceCents = 5000
	_, err := svc.CreateReservation(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrPricingMismatch)

	payments.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	availability.AssertNotCalled(t, "CreateHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
