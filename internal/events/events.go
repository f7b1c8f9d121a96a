// Package events carries rental side effects to the notification
// collaborator and any other downstream consumer.
package events

import (
	"context"
	"errors"
	"time"

	"trailerhub-backend/internal/logger"

	"github.com/google/uuid"
)

const (
	TypeRentalCreated       = "rental.created"
	TypeRentalStatusChanged = "rental.status_changed"
	TypeRentalReturnDue     = "rental.return_due"
	TypePaymentUpdated      = "payment.updated"
	TypeDamageReported      = "damage.reported"
	TypeDamageResolved      = "damage.resolved"
)

type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	RentalID   string            `json:"rental_id"`
	ResourceID string            `json:"resource_id,omitempty"`
	ActorID    string            `json:"actor_id,omitempty"`
	Recipients []string          `json:"recipients,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(eventType, rentalID string, recipients ...string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		RentalID:   rentalID,
		Recipients: recipients,
		Data:       map[string]string{},
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Multi fans an event out to every publisher. A failing sink does not stop
// the others; all failures are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			logger.Warn("Event sink failed", "type", evt.Type, "rentalID", evt.RentalID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
