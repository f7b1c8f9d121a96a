package domain

import "time"

// WeekdayMask stores the recurring weekly availability of a resource.
// Bit 0 is Sunday, bit 6 is Saturday.
type WeekdayMask uint8

const AllWeekdays WeekdayMask = 0x7F

func NewWeekdayMask(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m |= 1 << uint(d)
	}
	return m
}

// Allows reports whether the weekday is open for rentals.
func (m WeekdayMask) Allows(d time.Weekday) bool {
	return m&(1<<uint(d)) != 0
}

func (m WeekdayMask) Weekdays() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if m.Allows(d) {
			out = append(out, d)
		}
	}
	return out
}

// Resource is a rentable trailer listing. Tariffs are integer cents; a zero
// weekly or monthly tariff means the tier is not offered.
type Resource struct {
	ID                   string      `json:"id"`
	OwnerID              string      `json:"owner_id"`
	Name                 string      `json:"name"`
	PricePerDayCents     int64       `json:"price_per_day_cents"`
	PricePerWeekCents    int64       `json:"price_per_week_cents"`
	PricePerMonthCents   int64       `json:"price_per_month_cents"`
	DeliveryFeeCents     int64       `json:"delivery_fee_cents"`
	SecurityDepositCents int64       `json:"security_deposit_cents"`
	InsuranceFeeCents    int64       `json:"insurance_fee_cents"`
	AvailableWeekdays    WeekdayMask `json:"available_weekdays"`
	CreatedOn            time.Time   `json:"created_on"`
	UpdatedOn            time.Time   `json:"updated_on"`
}
