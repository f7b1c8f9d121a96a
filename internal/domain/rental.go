package domain

import "time"

type RentalStatus string

const (
	RentalStatusPending    RentalStatus = "PENDING"
	RentalStatusConfirmed  RentalStatus = "CONFIRMED"
	RentalStatusActive     RentalStatus = "ACTIVE"
	RentalStatusLateReturn RentalStatus = "LATE_RETURN"
	RentalStatusDisputed   RentalStatus = "DISPUTED"
	RentalStatusCancelled  RentalStatus = "CANCELLED"
	RentalStatusCompleted  RentalStatus = "COMPLETED"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusConfirmed, RentalStatusActive, RentalStatusLateReturn,
		RentalStatusDisputed, RentalStatusCancelled, RentalStatusCompleted:
		return true
	}
	return false
}

type Rental struct {
	ID                 string       `json:"id"`
	ResourceID         string       `json:"resource_id"`
	RenterID           string       `json:"renter_id"`
	LessorID           string       `json:"lessor_id"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            time.Time    `json:"end_date"`
	PickupTime         string       `json:"pickup_time,omitempty"`
	ReturnTime         string       `json:"return_time,omitempty"`
	Status             RentalStatus `json:"status"`
	TotalPriceCents    int64        `json:"total_price_cents"`
	DeliveryRequested  bool         `json:"delivery_requested"`
	InsuranceRequested bool         `json:"insurance_requested"`
	CancellationReason *string      `json:"cancellation_reason,omitempty"`
	CancellationDate   *time.Time   `json:"cancellation_date,omitempty"`
	ActualReturnDate   *time.Time   `json:"actual_return_date,omitempty"`
	SpecialNotes       *string      `json:"special_notes,omitempty"`
	CreatedOn          time.Time    `json:"created_on"`
	UpdatedOn          time.Time    `json:"updated_on"`
}

func (r *Rental) Range() DateRange {
	return NewDateRange(r.StartDate, r.EndDate)
}

// IsParty reports whether userID is the renter or the lessor.
func (r *Rental) IsParty(userID string) bool {
	return userID != "" && (userID == r.RenterID || userID == r.LessorID)
}

// Counterparty returns the other side of the rental for userID.
func (r *Rental) Counterparty(userID string) string {
	if userID == r.RenterID {
		return r.LessorID
	}
	return r.RenterID
}

// RentalStatusChange is one row of the transition audit trail.
type RentalStatusChange struct {
	ID        string       `json:"id"`
	RentalID  string       `json:"rental_id"`
	From      RentalStatus `json:"from_status"`
	To        RentalStatus `json:"to_status"`
	ActorID   string       `json:"actor_id"`
	ActorRole ActorRole    `json:"actor_role"`
	Note      string       `json:"note,omitempty"`
	CreatedOn time.Time    `json:"created_on"`
}
