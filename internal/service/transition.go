package service

import (
	"context"
	"errors"
	"fmt"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
)

// transitioner applies one status change: legality check, guarded update and
// audit row in a single transaction, then metrics and the change event.
type transitioner struct {
	tx        repository.Transactor
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func (t *transitioner) apply(ctx context.Context, rental *domain.Rental, to domain.RentalStatus, actor domain.Actor, note string, mutate func(rt *domain.Rental)) error {
	from := rental.Status
	if !domain.CanTransition(actor.Role, from, to) {
		return domain.NewInvalidTransition(from, to)
	}

	next := *rental
	next.Status = to
	if mutate != nil {
		mutate(&next)
	}

	err := t.tx.WithinTx(ctx, func(r repository.Repos) error {
		if err := r.Rentals.UpdateStatus(ctx, &next, from); err != nil {
			return err
		}
		return r.Rentals.RecordStatusChange(ctx, &domain.RentalStatusChange{
			RentalID:  rental.ID,
			From:      from,
			To:        to,
			ActorID:   actor.UserID,
			ActorRole: actor.Role,
			Note:      note,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return fmt.Errorf("%w: %w", domain.NewInvalidTransition(from, to), err)
		}
		return err
	}
	*rental = next

	t.metrics.Transitions.WithLabelValues(string(from), string(to), string(actor.Role)).Inc()
	logger.WithRequest(actor.UserID, rental.ID).Info("Rental status changed",
		"from", from, "to", to, "actorRole", actor.Role, "note", note)

	evt := events.New(events.TypeRentalStatusChanged, rental.ID, rental.RenterID, rental.LessorID)
	evt.ResourceID = rental.ResourceID
	evt.ActorID = actor.UserID
	evt.Data["from"] = string(from)
	evt.Data["to"] = string(to)
	if note != "" {
		evt.Data["note"] = note
	}
	publish(ctx, t.publisher, evt)
	return nil
}

// publish never fails the caller; the rental change is already committed.
func publish(ctx context.Context, p events.Publisher, evt events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Error("Failed to publish event", "type", evt.Type, "rentalID", evt.RentalID, "error", err)
	}
}

func loadRental(ctx context.Context, repo repository.RentalRepository, rentalID string) (*domain.Rental, error) {
	if rentalID == "" {
		return nil, domain.NewMissingField("rentalId")
	}
	rt, err := repo.GetByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewRentalNotFound(rentalID)
		}
		return nil, err
	}
	return rt, nil
}
