package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
	"trailerhub-backend/internal/utils"
)

type ReservationOptions struct {
	ToleranceCents int64
	Currency       string
}

type reservationService struct {
	tx           repository.Transactor
	repos        repository.Repos
	pricing      PricingService
	availability AvailabilityService
	payments     PaymentService
	publisher    events.Publisher
	metrics      *metrics.Metrics
	opts         ReservationOptions
}

func NewReservationService(tx repository.Transactor, repos repository.Repos, pricing PricingService, availability AvailabilityService, payments PaymentService, publisher events.Publisher, m *metrics.Metrics, opts ReservationOptions) ReservationService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.ToleranceCents <= 0 {
		opts.ToleranceCents = utils.DefaultToleranceCents
	}
	return &reservationService{
		tx:           tx,
		repos:        repos,
		pricing:      pricing,
		availability: availability,
		payments:     payments,
		publisher:    publisher,
		metrics:      m,
		opts:         opts,
	}
}

func validateReservation(req ReservationRequest) error {
	switch {
	case req.ResourceID == "":
		return domain.NewMissingField("resourceId")
	case req.RenterID == "":
		return domain.NewMissingField("renterId")
	case req.StartDate.IsZero():
		return domain.NewMissingField("startDate")
	case req.EndDate.IsZero():
		return domain.NewMissingField("endDate")
	case req.TotalPriceCents <= 0:
		return domain.NewMissingField("totalPrice")
	case !req.TermsAccepted:
		return domain.NewMissingField("termsAccepted")
	}
	if r := domain.NewDateRange(req.StartDate, req.EndDate); !r.Valid() {
		return domain.NewInvalidRange(r)
	}
	return nil
}

// CreateReservation re-prices the request, secures the payment intent and the
// calendar hold, then persists the PENDING rental and payment together. Every
// failure after the intent exists cancels it, which also drops the hold.
func (s *reservationService) CreateReservation(ctx context.Context, req ReservationRequest) (res *ReservationResult, err error) {
	logger.EnterMethod("reservationService.CreateReservation", "resourceID", req.ResourceID, "renterID", req.RenterID,
		"start", utils.FormatDate(req.StartDate), "end", utils.FormatDate(req.EndDate))
	defer func() {
		s.metrics.Reservations.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			logger.ExitMethodWithError("reservationService.CreateReservation", err, "resourceID", req.ResourceID)
		}
	}()

	if err := validateReservation(req); err != nil {
		return nil, err
	}
	r := domain.NewDateRange(req.StartDate, req.EndDate)

	resource, err := s.repos.Resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewResourceNotFound(req.ResourceID)
		}
		return nil, err
	}
	if resource.OwnerID == req.RenterID {
		return nil, domain.NewForbidden("owners cannot rent their own listing")
	}
	if err := checkSchedule(resource, r); err != nil {
		return nil, err
	}

	quote, err := s.pricing.GetQuote(ctx, req.ResourceID, r, req.Options)
	if err != nil {
		return nil, err
	}
	if err := utils.CheckSubmittedPrice(*quote, req.ServiceFeeCents, req.TotalPriceCents, s.opts.ToleranceCents); err != nil {
		logger.Warn("Submitted price rejected", "resourceID", req.ResourceID, "renterID", req.RenterID, "error", err)
		return nil, err
	}

	intentID, clientSecret, err := s.resolveIntent(ctx, req, resource, r, quote)
	if err != nil {
		return nil, err
	}
	if intentID == "" {
		// Replay of an already persisted reservation.
		return s.existing(ctx, req.RenterID, req.PaymentIntentID, quote)
	}

	if _, err := s.availability.CreateHold(ctx, req.ResourceID, r, req.RenterID, intentID); err != nil {
		s.compensate(ctx, intentID)
		return nil, err
	}

	rental := &domain.Rental{
		ResourceID:         req.ResourceID,
		RenterID:           req.RenterID,
		LessorID:           resource.OwnerID,
		StartDate:          r.Start,
		EndDate:            r.End,
		PickupTime:         req.PickupTime,
		ReturnTime:         req.ReturnTime,
		Status:             domain.RentalStatusPending,
		TotalPriceCents:    quote.TotalRenterPrice,
		DeliveryRequested:  req.Options.NeedsDelivery,
		InsuranceRequested: req.Options.WantsInsurance,
	}
	if notes := strings.TrimSpace(req.SpecialNotes); notes != "" {
		rental.SpecialNotes = &notes
	}
	payment := &domain.PaymentRecord{
		AmountCents:      quote.TotalRenterPrice,
		Currency:         s.opts.Currency,
		Status:           domain.PaymentStatusPending,
		ExternalIntentID: intentID,
	}

	err = s.tx.WithinTx(ctx, func(repos repository.Repos) error {
		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return err
		}
		payment.RentalID = rental.ID
		return repos.Payments.Create(ctx, payment)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.existing(ctx, req.RenterID, intentID, quote)
		}
		s.compensate(ctx, intentID)
		return nil, err
	}

	evt := events.New(events.TypeRentalCreated, rental.ID, rental.LessorID)
	evt.ResourceID = rental.ResourceID
	evt.ActorID = rental.RenterID
	evt.Data["range"] = r.String()
	evt.Data["total_cents"] = strconv.FormatInt(rental.TotalPriceCents, 10)
	publish(ctx, s.publisher, evt)

	logger.ExitMethod("reservationService.CreateReservation", "rentalID", rental.ID, "intentID", intentID)
	return &ReservationResult{Rental: rental, Quote: *quote, IntentID: intentID, ClientSecret: clientSecret}, nil
}

// resolveIntent returns the intent backing the reservation. A client-supplied
// intent is verified against the quote; an empty id with a nil error means the
// supplied intent already backs a persisted rental.
func (s *reservationService) resolveIntent(ctx context.Context, req ReservationRequest, resource *domain.Resource, r domain.DateRange, quote *domain.PriceQuote) (string, string, error) {
	if req.PaymentIntentID == "" {
		return s.payments.CreateIntent(ctx, quote.TotalRenterPrice, s.opts.Currency, map[string]string{
			"resource_id": resource.ID,
			"renter_id":   req.RenterID,
			"lessor_id":   resource.OwnerID,
			"range":       r.String(),
		})
	}

	if _, err := s.repos.Payments.GetByIntentID(ctx, req.PaymentIntentID); err == nil {
		return "", "", nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", "", err
	}

	in, err := s.payments.LookupIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return "", "", err
	}
	if in.Status.Failed() {
		return "", "", domain.NewPaymentState("payment intent is " + string(in.Status))
	}
	if d := in.AmountCents - quote.TotalRenterPrice; d > s.opts.ToleranceCents || -d > s.opts.ToleranceCents {
		return "", "", domain.NewPricingMismatch("intentAmount", quote.TotalRenterPrice, in.AmountCents)
	}
	return in.ID, in.ClientSecret, nil
}

func (s *reservationService) existing(ctx context.Context, renterID, intentID string, quote *domain.PriceQuote) (*ReservationResult, error) {
	p, err := s.repos.Payments.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	rental, err := s.repos.Rentals.GetByID(ctx, p.RentalID)
	if err != nil {
		return nil, err
	}
	if rental.RenterID != renterID {
		return nil, domain.NewForbidden("payment intent belongs to another reservation")
	}
	logger.Info("Reservation replay returned existing rental", "rentalID", rental.ID, "intentID", intentID)
	return &ReservationResult{Rental: rental, Quote: *quote, IntentID: intentID}, nil
}

// compensate cancels an intent the reservation could not use. Failures are
// left to payment reconciliation.
func (s *reservationService) compensate(ctx context.Context, intentID string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.payments.CancelIntent(ctx, intentID); err != nil {
		logger.Error("Failed to cancel orphan payment intent", "intentID", intentID, "error", err)
	}
}

func checkSchedule(res *domain.Resource, r domain.DateRange) error {
	var closed time.Time
	r.EachDay(func(d time.Time) bool {
		if !res.AvailableWeekdays.Allows(d.Weekday()) {
			closed = d
			return false
		}
		return true
	})
	if !closed.IsZero() {
		return domain.NewDatesUnavailable(res.ID, domain.DateRange{Start: closed, End: closed})
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "created"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return strings.ToLower(de.Code)
	}
	return "error"
}
