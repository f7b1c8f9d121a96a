package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDateRange(t *testing.T) {
	t.Run("Overlap is inclusive on both ends", func(t *testing.T) {
		a := NewDateRange(day("2024-06-01"), day("2024-06-03"))
		b := NewDateRange(day("2024-06-03"), day("2024-06-05"))
		c := NewDateRange(day("2024-06-04"), day("2024-06-05"))
		assert.True(t, a.Overlaps(b))
		assert.True(t, b.Overlaps(a))
		assert.False(t, a.Overlaps(c))
	})

	t.Run("Partial days are normalized to midnight", func(t *testing.T) {
		loc := time.FixedZone("X", 3*3600)
		a := NewDateRange(time.Date(2024, 6, 1, 23, 30, 0, 0, loc), time.Date(2024, 6, 3, 1, 0, 0, 0, loc))
		assert.Equal(t, day("2024-06-01"), a.Start)
		assert.Equal(t, 3, a.Days())
		assert.True(t, a.Contains(time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC)))
	})

	t.Run("Valid requires end after start", func(t *testing.T) {
		assert.False(t, NewDateRange(day("2024-06-01"), day("2024-06-01")).Valid())
		assert.False(t, NewDateRange(day("2024-06-02"), day("2024-06-01")).Valid())
		assert.False(t, DateRange{}.Valid())
		assert.True(t, NewDateRange(day("2024-06-01"), day("2024-06-02")).Valid())
	})

	t.Run("Days of inverted range is zero", func(t *testing.T) {
		assert.Equal(t, 0, NewDateRange(day("2024-06-05"), day("2024-06-01")).Days())
	})

	t.Run("EachDay visits every day", func(t *testing.T) {
		var days []string
		NewDateRange(day("2024-02-28"), day("2024-03-01")).EachDay(func(d time.Time) bool {
			days = append(days, d.Format(DateLayout))
			return true
		})
		assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, days)
	})
}

func TestBlockTag(t *testing.T) {
	assert.Equal(t, "HOLD:pi_1", HoldTag("pi_1").String())
	assert.Equal(t, "RENTAL:r1", RentalTag("r1").String())
	assert.Equal(t, "maintenance", ManualTag("maintenance").String())
	assert.Equal(t, HoldTag("pi_1"), ParseBlockTag("HOLD:pi_1"))
	assert.Equal(t, RentalTag("r1"), ParseBlockTag("RENTAL:r1"))
	assert.Equal(t, ManualTag("owner trip"), ParseBlockTag("owner trip"))
}

func TestErrorIs(t *testing.T) {
	r := NewDateRange(day("2024-06-01"), day("2024-06-03"))
	err := NewDatesUnavailable("res-1", r)
	assert.True(t, errors.Is(err, ErrDatesUnavailable))
	assert.False(t, errors.Is(err, ErrPricingMismatch))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "2024-06-01..2024-06-03")

	wrapped := errors.Join(errors.New("context"), NewInvalidTransition(RentalStatusActive, RentalStatusPending))
	assert.True(t, errors.Is(wrapped, ErrInvalidTransition))
	assert.Contains(t, wrapped.Error(), "ACTIVE")
	assert.Contains(t, wrapped.Error(), "PENDING")
}
