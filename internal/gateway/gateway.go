// Package gateway talks to the external payment provider that owns payment
// intents. Local state never assumes an intent exists until the provider has
// confirmed it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusProcessing            IntentStatus = "processing"
	StatusRequiresCapture       IntentStatus = "requires_capture"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
	StatusPaymentFailed         IntentStatus = "payment_failed"
)

// Terminal reports whether the provider will never move the intent again.
func (s IntentStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusCanceled || s == StatusPaymentFailed
}

// Failed reports whether the intent ended without money moving.
func (s IntentStatus) Failed() bool {
	return s == StatusCanceled || s == StatusPaymentFailed
}

type Intent struct {
	ID             string            `json:"id"`
	ClientSecret   string            `json:"client_secret"`
	AmountCents    int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Status         IntentStatus      `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

type CreateIntentRequest struct {
	AmountCents    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Gateway is the provider's payment intent API.
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	// FindByIdempotencyKey returns ErrIntentNotFound when the provider never
	// created an intent for key.
	FindByIdempotencyKey(ctx context.Context, key string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
	// CaptureIntent captures amount, or the full authorized amount when nil.
	CaptureIntent(ctx context.Context, intentID string, amount *int64) (*Intent, error)
}

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrInvalidState is returned when the provider refuses an operation for
	// the intent's current status.
	ErrInvalidState = errors.New("payment intent in invalid state")
)

type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsTimeout reports whether err means the outcome of a call is unknown.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
