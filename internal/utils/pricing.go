package utils

import (
	"trailerhub-backend/internal/domain"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30

	// DefaultDisplayDays is used when the range is absent or inverted. Such a
	// quote is only an estimate for display and can never back a booking.
	DefaultDisplayDays = 1

	// DefaultToleranceCents is the largest accepted difference between a
	// client-submitted amount and the server quote.
	DefaultToleranceCents int64 = 1
)

// Rates holds the marketplace fee rates in basis points. They are platform
// settings and never vary per resource.
type Rates struct {
	ServiceFeeBps  int64
	PlatformFeeBps int64
}

var DefaultRates = Rates{
	ServiceFeeBps:  500,
	PlatformFeeBps: 1500,
}

// QuoteInput is everything the price of a rental depends on.
type QuoteInput struct {
	Range                domain.DateRange
	PricePerDayCents     int64
	PricePerWeekCents    int64
	PricePerMonthCents   int64
	NeedsDelivery        bool
	DeliveryFeeCents     int64
	SecurityDepositCents int64
	InsuranceFeeCents    int64
	DiscountCents        int64
}

// QuoteOptions are the renter's choices on top of the resource tariff.
type QuoteOptions struct {
	NeedsDelivery  bool  `json:"needs_delivery"`
	WantsInsurance bool  `json:"wants_insurance"`
	DiscountCents  int64 `json:"discount_cents"`
}

// BuildQuoteInput maps a resource's live tariff and the renter's options to a
// pricing input.
func BuildQuoteInput(res *domain.Resource, r domain.DateRange, opts QuoteOptions) QuoteInput {
	in := QuoteInput{
		Range:                r,
		PricePerDayCents:     res.PricePerDayCents,
		PricePerWeekCents:    res.PricePerWeekCents,
		PricePerMonthCents:   res.PricePerMonthCents,
		NeedsDelivery:        opts.NeedsDelivery,
		DeliveryFeeCents:     res.DeliveryFeeCents,
		SecurityDepositCents: res.SecurityDepositCents,
		DiscountCents:        opts.DiscountCents,
	}
	if opts.WantsInsurance {
		in.InsuranceFeeCents = res.InsuranceFeeCents
	}
	return in
}

// RentalDays returns the inclusive number of days of r, falling back to
// DefaultDisplayDays for an absent or inverted range.
func RentalDays(r domain.DateRange) int {
	days := r.Days()
	if days <= 0 {
		return DefaultDisplayDays
	}
	return days
}

// TieredBasePrice applies the fixed tier precedence: monthly for 30 days or
// more when a monthly tariff exists, otherwise weekly for 7 days or more when
// a weekly tariff exists, otherwise daily. Remainder days are always charged
// at the daily rate.
func TieredBasePrice(days int, daily, weekly, monthly int64) int64 {
	n := int64(days)
	switch {
	case days >= daysPerMonth && monthly > 0:
		return (n/daysPerMonth)*monthly + (n%daysPerMonth)*daily
	case days >= daysPerWeek && weekly > 0:
		return (n/daysPerWeek)*weekly + (n%daysPerWeek)*daily
	default:
		return n * daily
	}
}

// percentOf returns bps basis points of amount, rounded half up to a cent.
func percentOf(amount, bps int64) int64 {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*bps + 5000) / 10000
}

// ComputeQuote prices in with the default marketplace rates.
func ComputeQuote(in QuoteInput) domain.PriceQuote {
	return ComputeQuoteWithRates(in, DefaultRates)
}

// ComputeQuoteWithRates is a pure function of its arguments.
func ComputeQuoteWithRates(in QuoteInput, rates Rates) domain.PriceQuote {
	days := RentalDays(in.Range)
	base := TieredBasePrice(days, in.PricePerDayCents, in.PricePerWeekCents, in.PricePerMonthCents)

	q := domain.PriceQuote{
		RentalDays:        days,
		BasePrice:         base,
		RenterServiceFee:  percentOf(base, rates.ServiceFeeBps),
		InsuranceFee:      in.InsuranceFeeCents,
		DiscountAmount:    in.DiscountCents,
		LessorPlatformFee: percentOf(base, rates.PlatformFeeBps),
		SecurityDeposit:   in.SecurityDepositCents,
	}
	if in.NeedsDelivery {
		q.DeliveryFee = in.DeliveryFeeCents
	}

	q.TotalRenterPrice = q.BasePrice + q.RenterServiceFee + q.DeliveryFee + q.InsuranceFee - q.DiscountAmount
	if q.TotalRenterPrice < 0 {
		q.TotalRenterPrice = 0
	}
	q.LessorEarnings = q.BasePrice - q.LessorPlatformFee
	return q
}

func withinTolerance(a, b, tolerance int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// ValidateQuote recomputes the quote and reports whether submittedTotal is
// within tolerance cents of it.
func ValidateQuote(in QuoteInput, submittedTotal, tolerance int64) bool {
	return withinTolerance(ComputeQuote(in).TotalRenterPrice, submittedTotal, tolerance)
}

// CheckSubmittedPrice compares the client-submitted service fee and total
// against a server quote and returns a PRICING_MISMATCH error naming the
// first field that differs.
func CheckSubmittedPrice(q domain.PriceQuote, submittedServiceFee, submittedTotal, tolerance int64) error {
	if !withinTolerance(q.RenterServiceFee, submittedServiceFee, tolerance) {
		return domain.NewPricingMismatch("serviceFee", q.RenterServiceFee, submittedServiceFee)
	}
	if !withinTolerance(q.TotalRenterPrice, submittedTotal, tolerance) {
		return domain.NewPricingMismatch("totalPrice", q.TotalRenterPrice, submittedTotal)
	}
	return nil
}
