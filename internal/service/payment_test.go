package service_test

import (
	"context"
	"errors"
	"testing"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntent_TimeoutRequeriesBeforeRetry(t *testing.T) {
	f := newFixture(t)
	f.gw.FailNext(context.DeadlineExceeded)

	id, secret, err := f.payments.CreateIntent(context.Background(), 6300, "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, secret)
	assert.Equal(t, 1, f.gw.CreateCalls())

	in, err := f.gw.GetIntent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "eur", in.Currency)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.GatewayCalls.WithLabelValues("create_intent", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.GatewayCalls.WithLabelValues("find_intent", "error")))
}

func TestCreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.payments.CreateIntent(context.Background(), 0, "eur", nil)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeInvalidField, de.Code)
}

func TestCancelIntent_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	status, err := f.payments.CancelIntent(ctx, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusCanceled, status)
	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))

	// already terminal at the provider
	status, err = f.payments.CancelIntent(ctx, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusCanceled, status)

	// unknown to the provider
	status, err = f.payments.CancelIntent(ctx, "pi_unknown")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusCanceled, status)

	p, err := f.store.Payments.GetByIntentID(ctx, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)
}

func TestCancelIntent_ReleasesHoldWhenGatewayFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	f.gw.FailNext(errors.New("503 service unavailable"))
	_, err = f.payments.CancelIntent(ctx, res.IntentID)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))
}

func TestHandleGatewayEvent_FinalizeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusRequiresCapture))
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))

	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)
	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))

	history, err := f.rentals.History(ctx, renter1, res.Rental.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.RentalStatusConfirmed, history[0].To)
	assert.Equal(t, domain.ActorRoleSystem, history[0].ActorRole)

	p, err := f.store.Payments.GetByRentalID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.NotEmpty(t, f.events.ofType(events.TypePaymentUpdated))
}

func TestHandleGatewayEvent_FailureReleasesHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)

	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusPaymentFailed))

	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))
	p, err := f.store.Payments.GetByRentalID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)

	rental, err := f.store.Rentals.GetByID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusPending, rental.Status)
}

func TestHandleGatewayEvent_FailureAfterCompletionIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusCanceled))

	p, err := f.store.Payments.GetByRentalID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)
}

func TestHandleGatewayEvent_UnknownIntentReleasesOrphanHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.availability.CreateHold(ctx, "res-1", domain.NewDateRange(day("2024-08-01"), day("2024-08-03")), "renter-1", "pi_orphan")
	require.NoError(t, err)

	require.NoError(t, f.payments.HandleGatewayEvent(ctx, "pi_orphan", gateway.StatusCanceled))
	assert.Empty(t, f.blocks(t, domain.HoldTag("pi_orphan")))
}

func TestRetryIntent_AfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusPaymentFailed))

	_, _, err = f.payments.RetryIntent(ctx, renter2, res.Rental.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	newID, secret, err := f.payments.RetryIntent(ctx, renter1, res.Rental.ID)
	require.NoError(t, err)
	assert.NotEqual(t, res.IntentID, newID)
	assert.NotEmpty(t, secret)
	assert.Len(t, f.blocks(t, domain.HoldTag(newID)), 1)

	p, err := f.store.Payments.GetByRentalID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, newID, p.ExternalIntentID)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
}

func TestRetryIntent_ReopensCancelledRental(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	_, err = f.rentals.TransitionStatus(ctx, renter1, res.Rental.ID, domain.RentalStatusCancelled, "")
	require.NoError(t, err)
	assert.Empty(t, f.blocks(t, domain.HoldTag(res.IntentID)))

	newID, _, err := f.payments.RetryIntent(ctx, renter1, res.Rental.ID)
	require.NoError(t, err)

	rental, err := f.store.Rentals.GetByID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusPending, rental.Status)
	assert.Nil(t, rental.CancellationReason)
	assert.Nil(t, rental.CancellationDate)
	assert.Len(t, f.blocks(t, domain.HoldTag(newID)), 1)
}

func TestRetryIntent_AfterAdminReactivationKeepsOneRentalBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	_, err = f.rentals.TransitionStatus(ctx, renter1, res.Rental.ID, domain.RentalStatusCancelled, "")
	require.NoError(t, err)
	_, err = f.rentals.TransitionStatus(ctx, admin, res.Rental.ID, domain.RentalStatusPending, "")
	require.NoError(t, err)
	require.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)

	newID, _, err := f.payments.RetryIntent(ctx, renter1, res.Rental.ID)
	require.NoError(t, err)
	assert.Empty(t, f.blocks(t, domain.HoldTag(newID)))

	require.NoError(t, f.payments.HandleGatewayEvent(ctx, newID, gateway.StatusSucceeded))
	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)

	rental, err := f.store.Rentals.GetByID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusConfirmed, rental.Status)
}

func TestRetryIntent_RejectedStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRental(t, "rental-active", domain.RentalStatusActive)
	_, _, err := f.payments.RetryIntent(ctx, renter1, "rental-active")
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeInvalidState, de.Code)

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	require.NoError(t, f.payments.HandleGatewayEvent(ctx, res.IntentID, gateway.StatusSucceeded))
	_, err = f.rentals.TransitionStatus(ctx, admin, res.Rental.ID, domain.RentalStatusPending, "reopen for audit")
	require.NoError(t, err)

	_, _, err = f.payments.RetryIntent(ctx, renter1, res.Rental.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentState)
}

func TestCaptureIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRental(t, "rental-1", domain.RentalStatusActive)

	_, err := f.payments.CaptureIntent(ctx, renter1, "rental-1", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	tooMuch := int64(20000)
	_, err = f.payments.CaptureIntent(ctx, lessor, "rental-1", &tooMuch)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "amount", de.Field)

	status, err := f.payments.CaptureIntent(ctx, lessor, "rental-1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, status)

	_, err = f.payments.CaptureIntent(ctx, lessor, "rental-1", nil)
	assert.ErrorIs(t, err, domain.ErrPaymentState)
}

func TestCaptureIntent_RequiresActiveRental(t *testing.T) {
	f := newFixture(t)
	f.seedRental(t, "rental-1", domain.RentalStatusConfirmed)

	_, err := f.payments.CaptureIntent(context.Background(), lessor, "rental-1", nil)
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeInvalidState, de.Code)
}

func TestReconcilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	f.gw.SetStatus(res.IntentID, gateway.StatusSucceeded)

	n, err := f.payments.ReconcilePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rental, err := f.store.Rentals.GetByID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusConfirmed, rental.Status)
}

func TestRecordWebhook(t *testing.T) {
	f := newFixture(t)
	w := &domain.PaymentWebhook{IntentID: "pi_1", Status: "succeeded", Body: []byte(`{}`)}
	require.NoError(t, f.payments.RecordWebhook(context.Background(), w))
	assert.Equal(t, "payment-gateway", w.Provider)
}
