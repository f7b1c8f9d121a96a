package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Run("User cannot move ACTIVE back to PENDING", func(t *testing.T) {
		assert.False(t, CanTransition(ActorRoleUser, RentalStatusActive, RentalStatusPending))
		assert.False(t, CanTransition(ActorRoleAdmin, RentalStatusActive, RentalStatusPending))
	})

	t.Run("Admin can reopen COMPLETED as DISPUTED, user cannot", func(t *testing.T) {
		assert.True(t, CanTransition(ActorRoleAdmin, RentalStatusCompleted, RentalStatusDisputed))
		assert.False(t, CanTransition(ActorRoleUser, RentalStatusCompleted, RentalStatusDisputed))
	})

	t.Run("Terminal states are closed to users", func(t *testing.T) {
		assert.Empty(t, AllowedTargets(ActorRoleUser, RentalStatusCancelled))
		assert.Empty(t, AllowedTargets(ActorRoleUser, RentalStatusCompleted))
	})

	t.Run("System actor uses admin table", func(t *testing.T) {
		assert.True(t, CanTransition(ActorRoleSystem, RentalStatusCancelled, RentalStatusPending))
	})

	t.Run("Admin table is a superset of user table", func(t *testing.T) {
		for from, targets := range UserTransitions {
			for to := range targets {
				assert.True(t, CanTransition(ActorRoleAdmin, from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("User happy path", func(t *testing.T) {
		path := []RentalStatus{RentalStatusPending, RentalStatusConfirmed, RentalStatusActive, RentalStatusLateReturn, RentalStatusDisputed, RentalStatusCompleted}
		for i := 0; i < len(path)-1; i++ {
			assert.True(t, CanTransition(ActorRoleUser, path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
		}
	})
}

func TestAllowedTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]RentalStatus{RentalStatusCompleted, RentalStatusLateReturn, RentalStatusDisputed},
		AllowedTargets(ActorRoleUser, RentalStatusActive))
	assert.Equal(t,
		[]RentalStatus{RentalStatusPending, RentalStatusConfirmed},
		AllowedTargets(ActorRoleAdmin, RentalStatusCancelled))
}
