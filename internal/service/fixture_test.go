package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository/memory"
	"trailerhub-backend/internal/service"
	"trailerhub-backend/internal/utils"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) ofType(t string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store        *memory.Store
	gw           *gateway.Mock
	metrics      *metrics.Metrics
	events       *recorder
	availability service.AvailabilityService
	payments     service.PaymentService
	reservations service.ReservationService
	rentals      service.RentalService
	damage       service.DamageService
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(opts...),
		gw:      gateway.NewMock(),
		metrics: metrics.New(),
		events:  &recorder{},
	}
	f.availability = service.NewAvailabilityService(f.store, f.store.Repos, nil, f.metrics)
	f.payments = service.NewPaymentService(f.store, f.store.Repos, f.gw, f.availability, f.events, f.metrics,
		service.PaymentOptions{Currency: "eur", CallTimeout: time.Second})
	pricing := service.NewPricingService(f.store.Resources, utils.DefaultRates)
	f.reservations = service.NewReservationService(f.store, f.store.Repos, pricing, f.availability, f.payments, f.events, f.metrics,
		service.ReservationOptions{Currency: "eur"})
	f.rentals = service.NewRentalService(f.store, f.store.Repos, f.availability, f.payments, f.events, f.metrics)
	f.damage = service.NewDamageService(f.store, f.store.Repos, f.events, f.metrics)

	require.NoError(t, f.store.Resources.Create(context.Background(), &domain.Resource{
		ID:                "res-1",
		OwnerID:           "lessor-1",
		Name:              "Flatbed 16ft",
		PricePerDayCents:  2000,
		PricePerWeekCents: 12000,
		AvailableWeekdays: domain.AllWeekdays,
	}))
	return f
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	renter1 = domain.Actor{UserID: "renter-1", Role: domain.ActorRoleUser}
	renter2 = domain.Actor{UserID: "renter-2", Role: domain.ActorRoleUser}
	lessor  = domain.Actor{UserID: "lessor-1", Role: domain.ActorRoleUser}
	admin   = domain.Actor{UserID: "admin-1", Role: domain.ActorRoleAdmin}
)

// june1to3 is 3 days at 20.00 plus the 5% service fee: 63.00 in total.
func june1to3(renterID string) service.ReservationRequest {
	return service.ReservationRequest{
		ResourceID:      "res-1",
		RenterID:        renterID,
		StartDate:       day("2024-06-01"),
		EndDate:         day("2024-06-03"),
		PickupTime:      "09:00",
		ReturnTime:      "17:00",
		TotalPriceCents: 6300,
		ServiceFeeCents: 300,
		TermsAccepted:   true,
	}
}

// seedRental stores a rental in the given status together with its payment.
func (f *fixture) seedRental(t *testing.T, id string, status domain.RentalStatus) *domain.Rental {
	t.Helper()
	ctx := context.Background()
	rental := &domain.Rental{
		ID:              id,
		ResourceID:      "res-1",
		RenterID:        "renter-1",
		LessorID:        "lessor-1",
		StartDate:       day("2024-07-01"),
		EndDate:         day("2024-07-05"),
		Status:          status,
		TotalPriceCents: 10500,
	}
	require.NoError(t, f.store.Rentals.Create(ctx, rental))

	in, err := f.gw.CreateIntent(ctx, gateway.CreateIntentRequest{AmountCents: 10500, Currency: "eur"})
	require.NoError(t, err)
	require.NoError(t, f.store.Payments.Create(ctx, &domain.PaymentRecord{
		RentalID:         id,
		AmountCents:      10500,
		Currency:         "eur",
		Status:           domain.PaymentStatusPending,
		ExternalIntentID: in.ID,
	}))
	return rental
}

func (f *fixture) blocks(t *testing.T, tag domain.BlockTag) []domain.BlockedInterval {
	t.Helper()
	out, err := f.store.Blocks.ListByTag(context.Background(), tag)
	require.NoError(t, err)
	return out
}
