package service_test

import (
	"context"
	"errors"
	"testing"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionStatus_Legality(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.RentalStatus
		to    domain.RentalStatus
		actor domain.Actor
		ok    bool
	}{
		{"renter confirms pending", domain.RentalStatusPending, domain.RentalStatusConfirmed, renter1, true},
		{"lessor starts confirmed", domain.RentalStatusConfirmed, domain.RentalStatusActive, lessor, true},
		{"user cannot rewind active", domain.RentalStatusActive, domain.RentalStatusPending, renter1, false},
		{"admin cannot rewind active to pending", domain.RentalStatusActive, domain.RentalStatusPending, admin, false},
		{"user cannot reopen completed", domain.RentalStatusCompleted, domain.RentalStatusDisputed, lessor, false},
		{"admin reopens completed", domain.RentalStatusCompleted, domain.RentalStatusDisputed, admin, true},
		{"admin reverts confirmed", domain.RentalStatusConfirmed, domain.RentalStatusPending, admin, true},
		{"user cannot leave cancelled", domain.RentalStatusCancelled, domain.RentalStatusPending, renter1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedRental(t, "rental-1", tt.from)

			rental, err := f.rentals.TransitionStatus(context.Background(), tt.actor, "rental-1", tt.to, "")
			if !tt.ok {
				var de *domain.Error
				require.True(t, errors.As(err, &de))
				assert.Equal(t, domain.CodeInvalidTransition, de.Code)
				assert.Equal(t, tt.from, de.From)
				assert.Equal(t, tt.to, de.To)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, rental.Status)
		})
	}
}

func TestTransitionStatus_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	f.seedRental(t, "rental-1", domain.RentalStatusPending)

	_, err := f.rentals.TransitionStatus(context.Background(), renter2, "rental-1", domain.RentalStatusCancelled, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransitionStatus_UnknownRental(t *testing.T) {
	f := newFixture(t)
	_, err := f.rentals.TransitionStatus(context.Background(), renter1, "missing", domain.RentalStatusCancelled, "")
	assert.ErrorIs(t, err, domain.ErrRentalNotFound)
}

func TestTransitionStatus_AuditAndEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusActive)

	rental, err := f.rentals.TransitionStatus(ctx, lessor, "rental-1", domain.RentalStatusCompleted, "returned clean")
	require.NoError(t, err)
	assert.NotNil(t, rental.ActualReturnDate)

	history, err := f.rentals.History(ctx, renter1, "rental-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "lessor-1", history[0].ActorID)
	assert.Equal(t, "returned clean", history[0].Note)

	evts := f.events.ofType(events.TypeRentalStatusChanged)
	require.Len(t, evts, 1)
	assert.Equal(t, "COMPLETED", evts[0].Data["to"])
	assert.ElementsMatch(t, []string{"renter-1", "lessor-1"}, evts[0].Recipients)
}

func TestTransitionStatus_AdminNoteAttributed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusConfirmed)

	_, err := f.rentals.TransitionStatus(ctx, admin, "rental-1", domain.RentalStatusPending, "")
	require.NoError(t, err)

	history, err := f.rentals.History(ctx, admin, "rental-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActorRoleAdmin, history[0].ActorRole)
	assert.NotEmpty(t, history[0].Note)
}

func TestTransitionStatus_AdminReactivationReblocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	_, err = f.rentals.TransitionStatus(ctx, renter1, res.Rental.ID, domain.RentalStatusCancelled, "")
	require.NoError(t, err)

	rental, err := f.rentals.TransitionStatus(ctx, admin, res.Rental.ID, domain.RentalStatusConfirmed, "paid offline")
	require.NoError(t, err)
	assert.Nil(t, rental.CancellationReason)
	assert.Len(t, f.blocks(t, domain.RentalTag(res.Rental.ID)), 1)
}

func TestTransitionStatus_ReactivationFailsWhenDatesTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reservations.CreateReservation(ctx, june1to3("renter-1"))
	require.NoError(t, err)
	_, err = f.rentals.TransitionStatus(ctx, renter1, res.Rental.ID, domain.RentalStatusCancelled, "")
	require.NoError(t, err)
	_, err = f.reservations.CreateReservation(ctx, june1to3("renter-2"))
	require.NoError(t, err)

	_, err = f.rentals.TransitionStatus(ctx, admin, res.Rental.ID, domain.RentalStatusConfirmed, "")
	assert.ErrorIs(t, err, domain.ErrDatesUnavailable)

	rental, err := f.store.Rentals.GetByID(ctx, res.Rental.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCancelled, rental.Status)
}

func TestListRentals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusActive)
	f.seedRental(t, "rental-2", domain.RentalStatusCompleted)

	asRenter, total, err := f.rentals.ListRentals(ctx, renter1, false, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	assert.Len(t, asRenter, 2)

	asLessor, total, err := f.rentals.ListRentals(ctx, lessor, true, domain.RentalStatusActive, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, asLessor, 1)
	assert.Equal(t, "rental-1", asLessor[0].ID)

	_, _, err = f.rentals.ListRentals(ctx, renter1, false, "BOGUS", 1, 10)
	assert.Error(t, err)
}

func TestGetRental_NonPartyForbidden(t *testing.T) {
	f := newFixture(t)
	f.seedRental(t, "rental-1", domain.RentalStatusActive)

	_, err := f.rentals.GetRental(context.Background(), renter2, "rental-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	rental, err := f.rentals.GetRental(context.Background(), admin, "rental-1")
	require.NoError(t, err)
	assert.Equal(t, "rental-1", rental.ID)
}

func TestMarkLateReturns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusActive)
	f.seedRental(t, "rental-2", domain.RentalStatusConfirmed)

	n, err := f.rentals.MarkLateReturns(ctx, day("2024-07-05"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.rentals.MarkLateReturns(ctx, day("2024-07-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rental, err := f.store.Rentals.GetByID(ctx, "rental-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusLateReturn, rental.Status)
}

func TestSendReturnReminders(t *testing.T) {
	f := newFixture(t)
	f.seedRental(t, "rental-1", domain.RentalStatusActive)

	n, err := f.rentals.SendReturnReminders(context.Background(), day("2024-07-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	evts := f.events.ofType(events.TypeRentalReturnDue)
	require.Len(t, evts, 1)
	assert.Equal(t, "2024-07-05", evts[0].Data["end_date"])
}
