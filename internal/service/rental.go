package service

import (
	"context"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
	"trailerhub-backend/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type rentalService struct {
	repos        repository.Repos
	availability AvailabilityService
	payments     PaymentService
	publisher    events.Publisher
	transitions  *transitioner
	now          func() time.Time
}

func NewRentalService(tx repository.Transactor, repos repository.Repos, availability AvailabilityService, payments PaymentService, publisher events.Publisher, m *metrics.Metrics) RentalService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &rentalService{
		repos:        repos,
		availability: availability,
		payments:     payments,
		publisher:    publisher,
		transitions:  &transitioner{tx: tx, publisher: publisher, metrics: m},
		now:          time.Now,
	}
}

// TransitionStatus moves a rental to a new status on behalf of actor and
// applies the calendar and payment side effects of the move.
func (s *rentalService) TransitionStatus(ctx context.Context, actor domain.Actor, rentalID string, to domain.RentalStatus, note string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.TransitionStatus", "rentalID", rentalID, "to", to, "actorID", actor.UserID, "role", actor.Role)

	if !to.Valid() {
		return nil, domain.NewInvalidField("status", "unknown rental status "+string(to))
	}
	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.ActorRoleUser && !rental.IsParty(actor.UserID) {
		return nil, domain.NewForbidden("only the renter or lessor can change this rental")
	}
	from := rental.Status
	if !domain.CanTransition(actor.Role, from, to) {
		err := domain.NewInvalidTransition(from, to)
		logger.ExitMethodWithError("rentalService.TransitionStatus", err, "rentalID", rentalID)
		return nil, err
	}
	if actor.Role == domain.ActorRoleAdmin && note == "" {
		note = "admin override"
	}

	reactivating := from == domain.RentalStatusCancelled
	if reactivating {
		if err := s.availability.BlockForRental(ctx, rental); err != nil {
			logger.ExitMethodWithError("rentalService.TransitionStatus", err, "rentalID", rentalID, "reason", "calendar taken")
			return nil, err
		}
	}

	now := s.now().UTC()
	err = s.transitions.apply(ctx, rental, to, actor, note, func(rt *domain.Rental) {
		switch to {
		case domain.RentalStatusCancelled:
			reason := note
			if reason == "" {
				reason = "cancelled by " + string(actor.Role)
			}
			rt.CancellationReason = &reason
			rt.CancellationDate = &now
		case domain.RentalStatusCompleted:
			if rt.ActualReturnDate == nil {
				rt.ActualReturnDate = &now
			}
		}
		if reactivating {
			rt.CancellationReason = nil
			rt.CancellationDate = nil
		}
	})
	if err != nil {
		if reactivating {
			s.availability.ReleaseRental(ctx, rental.ID)
		}
		logger.ExitMethodWithError("rentalService.TransitionStatus", err, "rentalID", rentalID)
		return nil, err
	}

	if to == domain.RentalStatusCancelled {
		s.releaseCancelled(ctx, rental)
	}

	logger.ExitMethod("rentalService.TransitionStatus", "rentalID", rentalID, "status", rental.Status)
	return rental, nil
}

// releaseCancelled frees the calendar before touching the gateway; neither
// step can fail the cancellation.
func (s *rentalService) releaseCancelled(ctx context.Context, rental *domain.Rental) {
	ctx = context.WithoutCancel(ctx)
	s.availability.ReleaseRental(ctx, rental.ID)

	p, err := s.repos.Payments.GetByRentalID(ctx, rental.ID)
	if err != nil {
		logger.Warn("No payment to cancel for rental", "rentalID", rental.ID, "error", err)
		return
	}
	if p.Status == domain.PaymentStatusCompleted {
		return
	}
	if _, err := s.payments.CancelIntent(ctx, p.ExternalIntentID); err != nil {
		logger.Error("Failed to cancel payment intent of cancelled rental", "rentalID", rental.ID, "intentID", p.ExternalIntentID, "error", err)
	}
}

func (s *rentalService) GetRental(ctx context.Context, actor domain.Actor, rentalID string) (*domain.Rental, error) {
	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParty(actor.UserID) && !actor.IsPrivileged() {
		return nil, domain.NewForbidden("not a party to this rental")
	}
	return rental, nil
}

func (s *rentalService) ListRentals(ctx context.Context, actor domain.Actor, asLessor bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	if actor.UserID == "" {
		return nil, 0, domain.NewMissingField("userId")
	}
	if status != "" && !status.Valid() {
		return nil, 0, domain.NewInvalidField("status", "unknown rental status "+string(status))
	}
	page, pageSize = normalizePage(page, pageSize)
	if asLessor {
		return s.repos.Rentals.ListByLessor(ctx, actor.UserID, status, page, pageSize)
	}
	return s.repos.Rentals.ListByRenter(ctx, actor.UserID, status, page, pageSize)
}

func (s *rentalService) History(ctx context.Context, actor domain.Actor, rentalID string) ([]domain.RentalStatusChange, error) {
	if _, err := s.GetRental(ctx, actor, rentalID); err != nil {
		return nil, err
	}
	return s.repos.Rentals.ListStatusChanges(ctx, rentalID)
}

// MarkLateReturns flags active rentals whose end date passed before asOf.
func (s *rentalService) MarkLateReturns(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.repos.Rentals.ListEndingBefore(ctx, domain.RentalStatusActive, domain.NormalizeDate(asOf))
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range overdue {
		rental := &overdue[i]
		if err := s.transitions.apply(ctx, rental, domain.RentalStatusLateReturn, domain.SystemActor, "return overdue", nil); err != nil {
			logger.Error("Failed to mark late return", "rentalID", rental.ID, "error", err)
			continue
		}
		marked++
	}
	return marked, nil
}

// SendReturnReminders notifies both parties of active rentals due back on day.
func (s *rentalService) SendReturnReminders(ctx context.Context, day time.Time) (int, error) {
	due, err := s.repos.Rentals.ListEndingOn(ctx, domain.RentalStatusActive, domain.NormalizeDate(day))
	if err != nil {
		return 0, err
	}
	for _, rental := range due {
		evt := events.New(events.TypeRentalReturnDue, rental.ID, rental.RenterID, rental.LessorID)
		evt.ResourceID = rental.ResourceID
		evt.Data["end_date"] = utils.FormatDate(rental.EndDate)
		if rental.ReturnTime != "" {
			evt.Data["return_time"] = rental.ReturnTime
		}
		publish(ctx, s.publisher, evt)
	}
	return len(due), nil
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
