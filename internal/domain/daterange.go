package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// NormalizeDate truncates t to midnight UTC of its calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: NormalizeDate(start), End: NormalizeDate(end)}
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// Valid reports whether the range is non-degenerate: end strictly after start.
// Holds and reservations require a valid range.
func (r DateRange) Valid() bool {
	if r.IsZero() {
		return false
	}
	return NormalizeDate(r.End).After(NormalizeDate(r.Start))
}

// Overlaps uses inclusive bounds on both sides.
func (r DateRange) Overlaps(o DateRange) bool {
	aStart, aEnd := NormalizeDate(r.Start), NormalizeDate(r.End)
	bStart, bEnd := NormalizeDate(o.Start), NormalizeDate(o.End)
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

func (r DateRange) Contains(day time.Time) bool {
	d := NormalizeDate(day)
	return !d.Before(NormalizeDate(r.Start)) && !d.After(NormalizeDate(r.End))
}

// Days returns the inclusive number of calendar days, or 0 when the range is
// empty or inverted.
func (r DateRange) Days() int {
	if r.IsZero() {
		return 0
	}
	start, end := NormalizeDate(r.Start), NormalizeDate(r.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay calls fn for every day in the range until fn returns false.
func (r DateRange) EachDay(fn func(time.Time) bool) {
	if r.IsZero() {
		return
	}
	end := NormalizeDate(r.End)
	for d := NormalizeDate(r.Start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

func (r DateRange) Equal(o DateRange) bool {
	return NormalizeDate(r.Start).Equal(NormalizeDate(o.Start)) && NormalizeDate(r.End).Equal(NormalizeDate(o.End))
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}
