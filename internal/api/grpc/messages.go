package grpc

// Dates on the wire are yyyy-mm-dd strings and amounts are integer cents.

type QuoteOptions struct {
	NeedsDelivery  bool  `json:"needsDelivery,omitempty"`
	WantsInsurance bool  `json:"wantsInsurance,omitempty"`
	DiscountCents  int64 `json:"discountCents,omitempty"`
}

type PriceQuote struct {
	RentalDays        int   `json:"rentalDays"`
	BasePrice         int64 `json:"basePrice"`
	RenterServiceFee  int64 `json:"renterServiceFee"`
	DeliveryFee       int64 `json:"deliveryFee"`
	InsuranceFee      int64 `json:"insuranceFee"`
	DiscountAmount    int64 `json:"discountAmount"`
	TotalRenterPrice  int64 `json:"totalRenterPrice"`
	LessorPlatformFee int64 `json:"lessorPlatformFee"`
	LessorEarnings    int64 `json:"lessorEarnings"`
	SecurityDeposit   int64 `json:"securityDeposit"`
}

type Rental struct {
	Id                 string `json:"id"`
	ResourceId         string `json:"resourceId"`
	RenterId           string `json:"renterId"`
	LessorId           string `json:"lessorId"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	PickupTime         string `json:"pickupTime,omitempty"`
	ReturnTime         string `json:"returnTime,omitempty"`
	Status             string `json:"status"`
	TotalPriceCents    int64  `json:"totalPriceCents"`
	DeliveryRequested  bool   `json:"deliveryRequested"`
	InsuranceRequested bool   `json:"insuranceRequested"`
	CancellationReason string `json:"cancellationReason,omitempty"`
	CancellationDate   string `json:"cancellationDate,omitempty"`
	ActualReturnDate   string `json:"actualReturnDate,omitempty"`
	SpecialNotes       string `json:"specialNotes,omitempty"`
	CreatedOn          string `json:"createdOn"`
}

type StatusChange struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ActorId   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
	Note      string `json:"note,omitempty"`
	CreatedOn string `json:"createdOn"`
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type BlockedInterval struct {
	Id        string     `json:"id"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	Kind      string     `json:"kind"`
	Reason    string     `json:"reason,omitempty"`
	AllDay    bool       `json:"allDay"`
	TimeSlots []TimeSlot `json:"timeSlots,omitempty"`
}

type DamageReport struct {
	Id              string   `json:"id"`
	RentalId        string   `json:"rentalId"`
	ReporterId      string   `json:"reporterId"`
	Status          string   `json:"status"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	RepairCostCents *int64   `json:"repairCostCents,omitempty"`
	PhotoUrls       []string `json:"photoUrls,omitempty"`
	CreatedOn       string   `json:"createdOn"`
}

type GetQuoteRequest struct {
	ResourceId string       `json:"resourceId"`
	StartDate  string       `json:"startDate"`
	EndDate    string       `json:"endDate"`
	Options    QuoteOptions `json:"options"`
}

type GetQuoteResponse struct {
	Quote PriceQuote `json:"quote"`
}

type CreateReservationRequest struct {
	ResourceId      string       `json:"resourceId"`
	StartDate       string       `json:"startDate"`
	EndDate         string       `json:"endDate"`
	PickupTime      string       `json:"pickupTime,omitempty"`
	ReturnTime      string       `json:"returnTime,omitempty"`
	TotalPrice      int64        `json:"totalPrice"`
	ServiceFee      int64        `json:"serviceFee"`
	PaymentIntentId string       `json:"paymentIntentId,omitempty"`
	TermsAccepted   bool         `json:"termsAccepted"`
	Options         QuoteOptions `json:"options"`
	SpecialNotes    string       `json:"specialNotes,omitempty"`
}

type CreateReservationResponse struct {
	Rental       Rental     `json:"rental"`
	Quote        PriceQuote `json:"quote"`
	IntentId     string     `json:"intentId"`
	ClientSecret string     `json:"clientSecret,omitempty"`
}

type TransitionStatusRequest struct {
	RentalId string `json:"rentalId"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

type RentalResponse struct {
	Rental Rental `json:"rental"`
}

type RentalIdRequest struct {
	RentalId string `json:"rentalId"`
}

type RetryPaymentResponse struct {
	IntentId     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

type CapturePaymentRequest struct {
	RentalId    string `json:"rentalId"`
	AmountCents *int64 `json:"amountCents,omitempty"`
}

type CapturePaymentResponse struct {
	PaymentStatus string `json:"paymentStatus"`
}

type ReportDamageRequest struct {
	RentalId        string   `json:"rentalId"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity"`
	PhotoUrls       []string `json:"photoUrls,omitempty"`
	RepairCostCents *int64   `json:"repairCostCents,omitempty"`
}

type RespondToDamageReportRequest struct {
	ReportId string `json:"reportId"`
	Accept   bool   `json:"accept"`
}

type DamageReportResponse struct {
	Report DamageReport `json:"report"`
}

type ListDamageReportsResponse struct {
	Reports []DamageReport `json:"reports"`
}

type RequestDamagePhotoUploadRequest struct {
	RentalId    string `json:"rentalId"`
	ContentType string `json:"contentType"`
}

type RequestDamagePhotoUploadResponse struct {
	UploadUrl string `json:"uploadUrl"`
	PhotoUrl  string `json:"photoUrl"`
	ExpiresAt string `json:"expiresAt"`
}

type GetAvailabilityRequest struct {
	ResourceId string `json:"resourceId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type GetAvailabilityResponse struct {
	Blocks []BlockedInterval `json:"blocks"`
}

type BlockDatesRequest struct {
	ResourceId string     `json:"resourceId"`
	StartDate  string     `json:"startDate"`
	EndDate    string     `json:"endDate"`
	Reason     string     `json:"reason"`
	TimeSlots  []TimeSlot `json:"timeSlots,omitempty"`
}

type BlockDatesResponse struct {
	Block BlockedInterval `json:"block"`
}

type UnblockDatesRequest struct {
	BlockId string `json:"blockId"`
}

// UpdateWeeklyScheduleRequest lists open weekdays, 0 (Sunday) through 6 (Saturday).
type UpdateWeeklyScheduleRequest struct {
	ResourceId string `json:"resourceId"`
	Weekdays   []int  `json:"weekdays"`
}

type ListRentalsRequest struct {
	AsLessor bool   `json:"asLessor,omitempty"`
	Status   string `json:"status,omitempty"`
	Page     int32  `json:"page,omitempty"`
	PageSize int32  `json:"pageSize,omitempty"`
}

type ListRentalsResponse struct {
	Rentals    []Rental `json:"rentals"`
	TotalCount int32    `json:"totalCount"`
}

type GetRentalHistoryResponse struct {
	Changes []StatusChange `json:"changes"`
}

type SyncPaymentRequest struct {
	IntentId string `json:"intentId"`
}

type Notification struct {
	Id         string            `json:"id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"isRead"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedOn  string            `json:"createdOn"`
}

type GetNotificationsRequest struct {
	Page     int32 `json:"page,omitempty"`
	PageSize int32 `json:"pageSize,omitempty"`
}

type GetNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	TotalCount    int32          `json:"totalCount"`
}

type MarkNotificationReadRequest struct {
	NotificationId string `json:"notificationId"`
}

type Empty struct{}
