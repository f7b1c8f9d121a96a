package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trailerhub-backend/internal/cache"
	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
)

type availabilityService struct {
	tx       repository.Transactor
	repos    repository.Repos
	calendar cache.CalendarCache
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAvailabilityService(tx repository.Transactor, repos repository.Repos, calendar cache.CalendarCache, m *metrics.Metrics) AvailabilityService {
	if calendar == nil {
		calendar = cache.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &availabilityService{
		tx:       tx,
		repos:    repos,
		calendar: calendar,
		metrics:  m,
		now:      time.Now,
	}
}

func validateHold(resourceID string, r domain.DateRange, holderID, intentID string) error {
	switch {
	case resourceID == "":
		return domain.NewMissingField("resourceId")
	case holderID == "":
		return domain.NewMissingField("holderId")
	case intentID == "":
		return domain.NewMissingField("paymentIntentId")
	case r.IsZero() || !r.Valid():
		return domain.NewInvalidRange(r)
	}
	return nil
}

// CreateHold places HOLD:<intentID> on the resource for holderID. The check
// and insert run under the resource's calendar lock, so two holders can never
// both pass the overlap check.
func (s *availabilityService) CreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) (*domain.BlockedInterval, error) {
	logger.EnterMethod("availabilityService.CreateHold", "resourceID", resourceID, "range", r.String(), "holderID", holderID, "intentID", intentID)

	r = domain.NewDateRange(r.Start, r.End)
	if err := validateHold(resourceID, r, holderID, intentID); err != nil {
		logger.ExitMethodWithError("availabilityService.CreateHold", err, "reason", "invalid input")
		return nil, err
	}

	var (
		hold    *domain.BlockedInterval
		created bool
	)
	err := s.tx.WithinResourceLock(ctx, resourceID, func(repos repository.Repos) error {
		existing, err := repos.Blocks.ListByTag(ctx, domain.HoldTag(intentID))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			hold = &existing[0]
			return nil
		}

		conflicts, err := repos.Blocks.FindOverlapping(ctx, resourceID, r, holderID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			logger.Info("Hold rejected, dates taken", "resourceID", resourceID, "range", r.String(),
				"conflictRange", conflicts[0].Range().String(), "conflictTag", conflicts[0].Tag.String())
			return domain.NewDatesUnavailable(resourceID, conflicts[0].Range())
		}

		removed, err := repos.Blocks.DeleteHoldsByHolder(ctx, resourceID, holderID, intentID)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Debug("Replaced previous holds of holder", "resourceID", resourceID, "holderID", holderID, "removed", removed)
		}

		hold = &domain.BlockedInterval{
			ResourceID: resourceID,
			HolderID:   holderID,
			StartDate:  r.Start,
			EndDate:    r.End,
			AllDay:     true,
			Tag:        domain.HoldTag(intentID),
		}
		if err := repos.Blocks.Create(ctx, hold); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return domain.NewDatesUnavailable(resourceID, r)
			}
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDatesUnavailable) {
			s.metrics.HoldConflicts.Inc()
		}
		logger.ExitMethodWithError("availabilityService.CreateHold", err, "resourceID", resourceID)
		return nil, err
	}

	if created {
		s.metrics.HoldsCreated.Inc()
		s.invalidate(ctx, resourceID)
	}
	logger.ExitMethod("availabilityService.CreateHold", "blockID", hold.ID, "created", created)
	return hold, nil
}

// TryCreateHold returns nil instead of an error when the hold cannot be placed.
func (s *availabilityService) TryCreateHold(ctx context.Context, resourceID string, r domain.DateRange, holderID, intentID string) *domain.BlockedInterval {
	hold, err := s.CreateHold(ctx, resourceID, r, holderID, intentID)
	if err != nil {
		return nil
	}
	return hold
}

func (s *availabilityService) ReleaseHold(ctx context.Context, intentID string) bool {
	if intentID == "" {
		return false
	}
	n, ok := s.deleteTagged(ctx, domain.HoldTag(intentID))
	if ok {
		s.metrics.HoldsReleased.Add(float64(n))
	}
	return ok
}

func (s *availabilityService) ReleaseRental(ctx context.Context, rentalID string) bool {
	if rentalID == "" {
		return false
	}
	_, ok := s.deleteTagged(ctx, domain.RentalTag(rentalID))
	return ok
}

// deleteTagged never fails the caller; a missing interval counts as released.
func (s *availabilityService) deleteTagged(ctx context.Context, tag domain.BlockTag) (int64, bool) {
	blocks, err := s.repos.Blocks.ListByTag(ctx, tag)
	if err != nil {
		logger.Error("Failed to look up blocked intervals", "tag", tag.String(), "error", err)
		return 0, false
	}
	if len(blocks) == 0 {
		logger.Debug("Nothing to release", "tag", tag.String())
		return 0, true
	}
	n, err := s.repos.Blocks.DeleteByTag(ctx, tag)
	if err != nil {
		logger.Error("Failed to release blocked intervals", "tag", tag.String(), "error", err)
		return 0, false
	}
	for _, b := range blocks {
		s.invalidate(ctx, b.ResourceID)
	}
	logger.Info("Released blocked intervals", "tag", tag.String(), "count", n)
	return n, true
}

// FinalizeHold retags the hold in place so the range is never unblocked.
// A rental that is already blocked keeps its single RENTAL interval and the
// hold is dropped instead.
func (s *availabilityService) FinalizeHold(ctx context.Context, intentID, rentalID string) bool {
	if intentID == "" || rentalID == "" {
		return false
	}
	current, err := s.repos.Blocks.ListByTag(ctx, domain.RentalTag(rentalID))
	if err != nil {
		logger.Error("Failed to look up rental block", "rentalID", rentalID, "error", err)
		return false
	}
	if len(current) > 0 {
		if n, ok := s.deleteTagged(ctx, domain.HoldTag(intentID)); ok && n > 0 {
			s.metrics.HoldsReleased.Add(float64(n))
			logger.Info("Rental already blocked, dropped redundant hold", "intentID", intentID, "rentalID", rentalID)
		}
		return true
	}

	n, err := s.repos.Blocks.Retag(ctx, domain.HoldTag(intentID), domain.RentalTag(rentalID))
	if err != nil {
		logger.Error("Failed to finalize hold", "intentID", intentID, "rentalID", rentalID, "error", err)
		return false
	}

	blocks, err := s.repos.Blocks.ListByTag(ctx, domain.RentalTag(rentalID))
	if err != nil {
		logger.Error("Failed to verify finalized hold", "rentalID", rentalID, "error", err)
		return n > 0
	}
	if n == 0 && len(blocks) == 0 {
		logger.Warn("No hold to finalize", "intentID", intentID, "rentalID", rentalID)
		return false
	}
	if n > 0 {
		s.metrics.HoldsFinalized.Inc()
		for _, b := range blocks {
			s.invalidate(ctx, b.ResourceID)
		}
	}
	return true
}

// BlockForRental (re)creates the RENTAL interval of a rental, for example on
// reactivation or when the hold was swept before payment confirmation.
func (s *availabilityService) BlockForRental(ctx context.Context, rental *domain.Rental) error {
	r := rental.Range()
	if !r.Valid() {
		return domain.NewInvalidRange(r)
	}
	created := false
	err := s.tx.WithinResourceLock(ctx, rental.ResourceID, func(repos repository.Repos) error {
		existing, err := repos.Blocks.ListByTag(ctx, domain.RentalTag(rental.ID))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		conflicts, err := repos.Blocks.FindOverlapping(ctx, rental.ResourceID, r, rental.RenterID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return domain.NewDatesUnavailable(rental.ResourceID, conflicts[0].Range())
		}
		err = repos.Blocks.Create(ctx, &domain.BlockedInterval{
			ResourceID: rental.ResourceID,
			HolderID:   rental.RenterID,
			StartDate:  r.Start,
			EndDate:    r.End,
			AllDay:     true,
			Tag:        domain.RentalTag(rental.ID),
		})
		if errors.Is(err, repository.ErrOverlap) {
			return domain.NewDatesUnavailable(rental.ResourceID, r)
		}
		created = err == nil
		return err
	})
	if err != nil {
		return err
	}
	if created {
		s.invalidate(ctx, rental.ResourceID)
	}
	return nil
}

func (s *availabilityService) IsDateBlocked(ctx context.Context, resourceID string, day time.Time) (*domain.BlockedInterval, error) {
	d := domain.NormalizeDate(day)
	blocks, err := s.GetCalendar(ctx, resourceID, domain.DateRange{Start: d, End: d})
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return &blocks[0], nil
}

func (s *availabilityService) IsDayAvailableBySchedule(ctx context.Context, resourceID string, day time.Time) (bool, error) {
	res, err := s.repos.Resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, domain.NewResourceNotFound(resourceID)
		}
		return false, err
	}
	return res.AvailableWeekdays.Allows(domain.NormalizeDate(day).Weekday()), nil
}

func (s *availabilityService) ownedResource(ctx context.Context, actor domain.Actor, resourceID string) (*domain.Resource, error) {
	res, err := s.repos.Resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewResourceNotFound(resourceID)
		}
		return nil, err
	}
	if res.OwnerID != actor.UserID && !actor.IsPrivileged() {
		return nil, domain.NewForbidden("only the owner can change this calendar")
	}
	return res, nil
}

// BlockDates adds a manual blackout held by the resource owner.
func (s *availabilityService) BlockDates(ctx context.Context, actor domain.Actor, resourceID string, r domain.DateRange, reason string, slots []domain.TimeSlot) (*domain.BlockedInterval, error) {
	r = domain.NewDateRange(r.Start, r.End)
	if r.IsZero() || r.Days() <= 0 {
		return nil, domain.NewInvalidRange(r)
	}
	res, err := s.ownedResource(ctx, actor, resourceID)
	if err != nil {
		return nil, err
	}

	block := &domain.BlockedInterval{
		ResourceID: resourceID,
		HolderID:   res.OwnerID,
		StartDate:  r.Start,
		EndDate:    r.End,
		AllDay:     len(slots) == 0,
		TimeSlots:  slots,
		Tag:        domain.ManualTag(reason),
	}
	err = s.tx.WithinResourceLock(ctx, resourceID, func(repos repository.Repos) error {
		conflicts, err := repos.Blocks.FindOverlapping(ctx, resourceID, r, res.OwnerID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return domain.NewDatesUnavailable(resourceID, conflicts[0].Range())
		}
		err = repos.Blocks.Create(ctx, block)
		if errors.Is(err, repository.ErrOverlap) {
			return domain.NewDatesUnavailable(resourceID, r)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, resourceID)
	logger.Info("Dates blocked", "resourceID", resourceID, "range", r.String(), "actorID", actor.UserID)
	return block, nil
}

func (s *availabilityService) UnblockDates(ctx context.Context, actor domain.Actor, blockID string) error {
	block, err := s.repos.Blocks.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.Error{Kind: domain.KindNotFound, Code: domain.CodeBlockNotFound, Message: fmt.Sprintf("blocked interval %s not found", blockID)}
		}
		return err
	}
	if block.Tag.Kind != domain.BlockKindManual {
		return domain.NewForbidden("only manual blocks can be removed; holds and rentals follow the rental lifecycle")
	}
	if _, err := s.ownedResource(ctx, actor, block.ResourceID); err != nil {
		return err
	}
	if err := s.repos.Blocks.DeleteByID(ctx, blockID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.invalidate(ctx, block.ResourceID)
	return nil
}

func (s *availabilityService) UpdateWeeklySchedule(ctx context.Context, actor domain.Actor, resourceID string, mask domain.WeekdayMask) error {
	if mask > domain.AllWeekdays {
		return domain.NewInvalidField("availableWeekdays", "mask has bits beyond Saturday")
	}
	if _, err := s.ownedResource(ctx, actor, resourceID); err != nil {
		return err
	}
	return s.repos.Resources.UpdateWeeklySchedule(ctx, resourceID, mask)
}

// GetCalendar lists intervals intersecting r, served from the cache when
// possible. Cache failures fall through to the store.
func (s *availabilityService) GetCalendar(ctx context.Context, resourceID string, r domain.DateRange) ([]domain.BlockedInterval, error) {
	if resourceID == "" {
		return nil, domain.NewMissingField("resourceId")
	}
	r = domain.NewDateRange(r.Start, r.End)
	if r.IsZero() || r.Days() <= 0 {
		return nil, domain.NewInvalidRange(r)
	}

	blocks, version, hit, err := s.calendar.Get(ctx, resourceID, r)
	cacheable := err == nil
	switch {
	case err != nil:
		logger.Warn("Calendar cache read failed", "resourceID", resourceID, "error", err)
		s.metrics.CalendarCacheHits.WithLabelValues("error").Inc()
	case hit:
		s.metrics.CalendarCacheHits.WithLabelValues("hit").Inc()
		return blocks, nil
	default:
		s.metrics.CalendarCacheHits.WithLabelValues("miss").Inc()
	}

	blocks, err = s.repos.Blocks.ListByResource(ctx, resourceID, r)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return blocks, nil
	}
	// Keyed by the version seen before the read; a concurrent invalidation
	// leaves this entry unreachable.
	if err := s.calendar.Set(ctx, resourceID, version, r, blocks); err != nil {
		logger.Warn("Calendar cache write failed", "resourceID", resourceID, "error", err)
	}
	return blocks, nil
}

// SweepStaleHolds deletes holds older than olderThan whose reservation never
// got persisted or whose payment failed. Holds backing a pending payment are
// left to payment reconciliation.
func (s *availabilityService) SweepStaleHolds(ctx context.Context, olderThan time.Duration) (int, error) {
	holds, err := s.repos.Blocks.ListHoldsCreatedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, h := range holds {
		p, err := s.repos.Payments.GetByIntentID(ctx, h.Tag.RefID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			logger.Error("Failed to load payment for hold", "intentID", h.Tag.RefID, "error", err)
			continue
		case p.Status != domain.PaymentStatusFailed:
			continue
		}
		if s.ReleaseHold(ctx, h.Tag.RefID) {
			swept++
		}
	}
	return swept, nil
}

func (s *availabilityService) invalidate(ctx context.Context, resourceID string) {
	if err := s.calendar.Invalidate(ctx, resourceID); err != nil {
		logger.Warn("Calendar cache invalidation failed", "resourceID", resourceID, "error", err)
	}
}
