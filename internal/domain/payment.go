package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentRecord mirrors the external payment intent locally. It is one to one
// with a rental; ExternalIntentID joins it to the gateway.
type PaymentRecord struct {
	ID               string        `json:"id"`
	RentalID         string        `json:"rental_id"`
	AmountCents      int64         `json:"amount_cents"`
	Currency         string        `json:"currency"`
	Status           PaymentStatus `json:"status"`
	ExternalIntentID string        `json:"external_intent_id"`
	CreatedOn        time.Time     `json:"created_on"`
	UpdatedOn        time.Time     `json:"updated_on"`
}

// PaymentWebhook is the raw audit row for an inbound gateway notification.
type PaymentWebhook struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	IntentID  string    `json:"intent_id"`
	Status    string    `json:"status"`
	Signature string    `json:"signature"`
	Body      []byte    `json:"-"`
	CreatedOn time.Time `json:"created_on"`
}
