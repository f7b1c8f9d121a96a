package domain

// PriceQuote is a computed price breakdown for a prospective rental. All
// amounts are cents. It is never persisted.
type PriceQuote struct {
	RentalDays        int   `json:"rental_days"`
	BasePrice         int64 `json:"base_price"`
	RenterServiceFee  int64 `json:"renter_service_fee"`
	DeliveryFee       int64 `json:"delivery_fee"`
	InsuranceFee      int64 `json:"insurance_fee"`
	DiscountAmount    int64 `json:"discount_amount"`
	TotalRenterPrice  int64 `json:"total_renter_price"`
	LessorPlatformFee int64 `json:"lessor_platform_fee"`
	LessorEarnings    int64 `json:"lessor_earnings"`
	SecurityDeposit   int64 `json:"security_deposit"`
}
