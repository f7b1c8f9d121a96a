package service

import (
	"context"
	"errors"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

const gatewayName = "payment-gateway"

type PaymentOptions struct {
	Currency    string
	CallTimeout time.Duration
}

type paymentService struct {
	tx           repository.Transactor
	repos        repository.Repos
	gw           gateway.Gateway
	availability AvailabilityService
	publisher    events.Publisher
	metrics      *metrics.Metrics
	transitions  *transitioner
	opts         PaymentOptions
	now          func() time.Time
}

func NewPaymentService(tx repository.Transactor, repos repository.Repos, gw gateway.Gateway, availability AvailabilityService, publisher events.Publisher, m *metrics.Metrics, opts PaymentOptions) PaymentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &paymentService{
		tx:           tx,
		repos:        repos,
		gw:           gw,
		availability: availability,
		publisher:    publisher,
		metrics:      m,
		transitions:  &transitioner{tx: tx, publisher: publisher, metrics: m},
		opts:         opts,
		now:          time.Now,
	}
}

// call runs one gateway operation under the configured timeout and records it.
func (s *paymentService) call(ctx context.Context, op string, fn func(ctx context.Context) (*gateway.Intent, error), args ...any) (*gateway.Intent, error) {
	if s.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
	}
	logger.ExternalServiceCall(gatewayName, op, args...)
	start := time.Now()
	in, err := fn(ctx)
	s.metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.metrics.GatewayCalls.WithLabelValues(op, metrics.Result(err)).Inc()
	logger.ExternalServiceResult(gatewayName, op, err, args...)
	return in, err
}

// CreateIntent creates an intent with a fresh idempotency key. When the call
// times out the provider is asked whether the intent exists before a single
// retry with the same key, so a lost response never yields two intents.
func (s *paymentService) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) {
	if amountCents <= 0 {
		return "", "", domain.NewInvalidField("amount", "must be positive")
	}
	if currency == "" {
		currency = s.opts.Currency
	}
	req := gateway.CreateIntentRequest{
		AmountCents:    amountCents,
		Currency:       currency,
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	}
	create := func(ctx context.Context) (*gateway.Intent, error) { return s.gw.CreateIntent(ctx, req) }

	in, err := s.call(ctx, "create_intent", create, "amount", amountCents, "idempotencyKey", req.IdempotencyKey)
	if err != nil && gateway.IsTimeout(err) {
		found, ferr := s.call(ctx, "find_intent", func(ctx context.Context) (*gateway.Intent, error) {
			return s.gw.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		}, "idempotencyKey", req.IdempotencyKey)
		switch {
		case ferr == nil:
			in, err = found, nil
		case errors.Is(ferr, gateway.ErrIntentNotFound):
			in, err = s.call(ctx, "create_intent", create, "amount", amountCents, "idempotencyKey", req.IdempotencyKey, "retry", true)
		}
	}
	if err != nil {
		return "", "", domain.NewGatewayUnavailable("create payment intent", err)
	}
	return in.ID, in.ClientSecret, nil
}

func (s *paymentService) LookupIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	in, err := s.call(ctx, "get_intent", func(ctx context.Context) (*gateway.Intent, error) {
		return s.gw.GetIntent(ctx, intentID)
	}, "intentID", intentID)
	if err != nil {
		if errors.Is(err, gateway.ErrIntentNotFound) {
			return nil, domain.NewInvalidField("paymentIntentId", "unknown payment intent")
		}
		return nil, domain.NewGatewayUnavailable("get payment intent", err)
	}
	return in, nil
}

// CancelIntent releases the intent's hold and cancels it at the provider. An
// intent the provider no longer knows counts as canceled; one that is already
// terminal reports its final status.
func (s *paymentService) CancelIntent(ctx context.Context, intentID string) (gateway.IntentStatus, error) {
	if intentID == "" {
		return "", domain.NewMissingField("paymentIntentId")
	}
	s.availability.ReleaseHold(ctx, intentID)

	status, err := s.cancelAtGateway(ctx, intentID)
	if err != nil {
		return "", err
	}
	if status.Failed() {
		s.markFailed(ctx, intentID)
	} else {
		logger.Warn("Cancel requested for an intent that already moved money", "intentID", intentID, "status", status)
	}
	return status, nil
}

func (s *paymentService) cancelAtGateway(ctx context.Context, intentID string) (gateway.IntentStatus, error) {
	in, err := s.call(ctx, "cancel_intent", func(ctx context.Context) (*gateway.Intent, error) {
		return s.gw.CancelIntent(ctx, intentID)
	}, "intentID", intentID)
	switch {
	case err == nil:
		return in.Status, nil
	case errors.Is(err, gateway.ErrIntentNotFound):
		return gateway.StatusCanceled, nil
	case errors.Is(err, gateway.ErrInvalidState):
		cur, gerr := s.call(ctx, "get_intent", func(ctx context.Context) (*gateway.Intent, error) {
			return s.gw.GetIntent(ctx, intentID)
		}, "intentID", intentID)
		if gerr != nil {
			return "", domain.NewGatewayUnavailable("get payment intent", gerr)
		}
		if cur.Status.Terminal() {
			return cur.Status, nil
		}
		return "", domain.NewPaymentState("payment intent cannot be canceled while " + string(cur.Status))
	default:
		return "", domain.NewGatewayUnavailable("cancel payment intent", err)
	}
}

func (s *paymentService) markFailed(ctx context.Context, intentID string) {
	p, err := s.repos.Payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error("Failed to load payment", "intentID", intentID, "error", err)
		}
		return
	}
	if p.Status != domain.PaymentStatusPending {
		return
	}
	p.Status = domain.PaymentStatusFailed
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		logger.Error("Failed to mark payment failed", "intentID", intentID, "error", err)
	}
}

// RetryIntent replaces the rental's payment intent after a failure or a
// cancellation, re-holding the dates under the new intent.
func (s *paymentService) RetryIntent(ctx context.Context, actor domain.Actor, rentalID string) (string, string, error) {
	logger.EnterMethod("paymentService.RetryIntent", "rentalID", rentalID, "actorID", actor.UserID)

	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		return "", "", err
	}
	if actor.UserID != rental.RenterID && !actor.IsPrivileged() {
		return "", "", domain.NewForbidden("only the renter can retry payment")
	}
	if rental.Status != domain.RentalStatusPending && rental.Status != domain.RentalStatusCancelled {
		return "", "", domain.NewInvalidState("payment can only be retried for pending or cancelled rentals")
	}
	p, err := s.repos.Payments.GetByRentalID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", domain.ErrPaymentNotFound
		}
		return "", "", err
	}
	if p.Status == domain.PaymentStatusCompleted {
		return "", "", domain.NewPaymentState("payment already completed")
	}

	intentID, secret, err := s.CreateIntent(ctx, p.AmountCents, p.Currency, map[string]string{
		"rental_id":   rental.ID,
		"resource_id": rental.ResourceID,
		"renter_id":   rental.RenterID,
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RetryIntent", err, "rentalID", rentalID)
		return "", "", err
	}

	abort := func(cause error) (string, string, error) {
		if _, cerr := s.CancelIntent(ctx, intentID); cerr != nil {
			logger.Error("Failed to cancel replacement intent", "intentID", intentID, "error", cerr)
		}
		logger.ExitMethodWithError("paymentService.RetryIntent", cause, "rentalID", rentalID)
		return "", "", cause
	}

	// A reactivated rental already owns its dates; a hold on top would
	// collide with its own RENTAL interval.
	reserved, err := s.repos.Blocks.ListByTag(ctx, domain.RentalTag(rental.ID))
	if err != nil {
		return abort(err)
	}
	if len(reserved) == 0 {
		if _, err := s.availability.CreateHold(ctx, rental.ResourceID, rental.Range(), rental.RenterID, intentID); err != nil {
			return abort(err)
		}
	}

	oldIntentID := p.ExternalIntentID
	p.ExternalIntentID = intentID
	p.Status = domain.PaymentStatusPending
	if err := s.repos.Payments.Update(ctx, p); err != nil {
		return abort(err)
	}

	if rental.Status == domain.RentalStatusCancelled {
		err := s.transitions.apply(ctx, rental, domain.RentalStatusPending, domain.SystemActor, "payment retried", func(rt *domain.Rental) {
			rt.CancellationReason = nil
			rt.CancellationDate = nil
		})
		if err != nil {
			p.ExternalIntentID = oldIntentID
			p.Status = domain.PaymentStatusFailed
			if uerr := s.repos.Payments.Update(ctx, p); uerr != nil {
				logger.Error("Failed to restore payment intent", "rentalID", rentalID, "error", uerr)
			}
			return abort(err)
		}
	}

	if oldIntentID != "" && oldIntentID != intentID {
		if _, err := s.cancelAtGateway(ctx, oldIntentID); err != nil {
			logger.Warn("Failed to cancel superseded intent", "intentID", oldIntentID, "error", err)
		}
	}

	s.publishPayment(ctx, rental, p)
	logger.ExitMethod("paymentService.RetryIntent", "rentalID", rentalID, "intentID", intentID)
	return intentID, secret, nil
}

// CaptureIntent captures an authorized intent once the rental is underway.
func (s *paymentService) CaptureIntent(ctx context.Context, actor domain.Actor, rentalID string, amountCents *int64) (domain.PaymentStatus, error) {
	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		return "", err
	}
	if actor.UserID != rental.LessorID && !actor.IsPrivileged() {
		return "", domain.NewForbidden("only the lessor can capture payment")
	}
	if rental.Status != domain.RentalStatusActive && rental.Status != domain.RentalStatusCompleted {
		return "", domain.NewInvalidState("payment can only be captured for active or completed rentals")
	}
	p, err := s.repos.Payments.GetByRentalID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrPaymentNotFound
		}
		return "", err
	}
	if p.Status == domain.PaymentStatusCompleted {
		return "", domain.NewPaymentState("payment already captured")
	}
	if amountCents != nil && (*amountCents <= 0 || *amountCents > p.AmountCents) {
		return "", domain.NewInvalidField("amount", "must be positive and not exceed the authorized amount")
	}

	in, err := s.call(ctx, "capture_intent", func(ctx context.Context) (*gateway.Intent, error) {
		return s.gw.CaptureIntent(ctx, p.ExternalIntentID, amountCents)
	}, "intentID", p.ExternalIntentID)
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrInvalidState):
		cur, gerr := s.LookupIntent(ctx, p.ExternalIntentID)
		if gerr != nil {
			return "", gerr
		}
		if cur.Status != gateway.StatusSucceeded {
			return "", domain.NewPaymentState("payment intent cannot be captured while " + string(cur.Status))
		}
		in = cur
	case errors.Is(err, gateway.ErrIntentNotFound):
		return "", domain.NewPaymentState("payment intent no longer exists at the provider")
	default:
		return "", domain.NewGatewayUnavailable("capture payment intent", err)
	}

	if in.Status == gateway.StatusSucceeded {
		p.Status = domain.PaymentStatusCompleted
		if err := s.repos.Payments.Update(ctx, p); err != nil {
			return "", err
		}
		s.publishPayment(ctx, rental, p)
	}
	return p.Status, nil
}

// HandleGatewayEvent applies a provider status to the local payment mirror,
// the calendar and the rental. Replays are harmless.
func (s *paymentService) HandleGatewayEvent(ctx context.Context, intentID string, status gateway.IntentStatus) error {
	logger.EnterMethod("paymentService.HandleGatewayEvent", "intentID", intentID, "status", status)
	if intentID == "" {
		return domain.NewMissingField("paymentIntentId")
	}

	p, err := s.repos.Payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// The reservation was never persisted; only the hold can be left over.
		if status.Failed() {
			s.availability.ReleaseHold(ctx, intentID)
		}
		logger.Info("Gateway event for unknown payment acknowledged", "intentID", intentID, "status", status)
		return nil
	}

	switch {
	case status == gateway.StatusSucceeded:
		if p.Status != domain.PaymentStatusCompleted {
			p.Status = domain.PaymentStatusCompleted
			if err := s.repos.Payments.Update(ctx, p); err != nil {
				return err
			}
		}
		s.confirm(ctx, p.RentalID, intentID)
	case status == gateway.StatusRequiresCapture:
		s.confirm(ctx, p.RentalID, intentID)
	case status.Failed():
		if p.Status == domain.PaymentStatusCompleted {
			logger.Warn("Ignoring failure event for completed payment", "intentID", intentID, "status", status)
			return nil
		}
		if p.Status != domain.PaymentStatusFailed {
			p.Status = domain.PaymentStatusFailed
			if err := s.repos.Payments.Update(ctx, p); err != nil {
				return err
			}
		}
		s.availability.ReleaseHold(ctx, intentID)
	default:
		logger.Debug("Gateway event needs no action", "intentID", intentID, "status", status)
		return nil
	}

	if rental, err := s.repos.Rentals.GetByID(ctx, p.RentalID); err == nil {
		s.publishPayment(ctx, rental, p)
	}
	logger.ExitMethod("paymentService.HandleGatewayEvent", "intentID", intentID, "paymentStatus", p.Status)
	return nil
}

// confirm turns the hold into a rental block and confirms a pending rental.
func (s *paymentService) confirm(ctx context.Context, rentalID, intentID string) {
	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		logger.Error("Failed to load rental for payment", "rentalID", rentalID, "error", err)
		return
	}
	if rental.Status == domain.RentalStatusCancelled {
		logger.Warn("Payment confirmed for cancelled rental", "rentalID", rentalID, "intentID", intentID)
		return
	}

	if !s.availability.FinalizeHold(ctx, intentID, rentalID) {
		if err := s.availability.BlockForRental(ctx, rental); err != nil {
			logger.Error("Paid rental could not be blocked on the calendar", "rentalID", rentalID, "error", err)
		}
	}

	if rental.Status != domain.RentalStatusPending {
		return
	}
	if err := s.transitions.apply(ctx, rental, domain.RentalStatusConfirmed, domain.SystemActor, "payment confirmed", nil); err != nil {
		logger.Warn("Failed to confirm rental after payment", "rentalID", rentalID, "error", err)
	}
}

func (s *paymentService) SyncIntent(ctx context.Context, intentID string) error {
	in, err := s.LookupIntent(ctx, intentID)
	if err != nil {
		return err
	}
	return s.HandleGatewayEvent(ctx, intentID, in.Status)
}

func (s *paymentService) RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error {
	if w.Provider == "" {
		w.Provider = gatewayName
	}
	return s.repos.Payments.RecordWebhook(ctx, w)
}

// ReconcilePending re-reads pending payments older than olderThan from the
// provider, covering webhooks that never arrived.
func (s *paymentService) ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error) {
	pending, err := s.repos.Payments.ListPendingBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := s.SyncIntent(ctx, p.ExternalIntentID); err != nil {
			logger.Error("Failed to reconcile payment", "intentID", p.ExternalIntentID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (s *paymentService) publishPayment(ctx context.Context, rental *domain.Rental, p *domain.PaymentRecord) {
	evt := events.New(events.TypePaymentUpdated, rental.ID, rental.RenterID, rental.LessorID)
	evt.ResourceID = rental.ResourceID
	evt.Data["status"] = string(p.Status)
	evt.Data["intent_id"] = p.ExternalIntentID
	publish(ctx, s.publisher, evt)
}
