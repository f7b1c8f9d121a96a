package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"trailerhub-backend/internal/domain"
)

// ParseDate converts a yyyy-mm-dd formatted string into midnight UTC of that day
func ParseDate(dateStr string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(dateStr), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %v", err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %v", err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ParseDateRange parses both ends of a range. Either side may be empty, in
// which case the zero time is used.
func ParseDateRange(startStr, endStr string) (domain.DateRange, error) {
	var r domain.DateRange
	if startStr != "" {
		start, err := ParseDate(startStr)
		if err != nil {
			return r, fmt.Errorf("invalid start date: %w", err)
		}
		r.Start = start
	}
	if endStr != "" {
		end, err := ParseDate(endStr)
		if err != nil {
			return r, fmt.Errorf("invalid end date: %w", err)
		}
		r.End = end
	}
	return r, nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate renders t as yyyy-mm-dd in UTC.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.NormalizeDate(t).Format(domain.DateLayout)
}
