// Package memory implements the repository ports in process memory. It backs
// tests and single-node demos; units of work are serialized and roll back by
// restoring a snapshot.
package memory

import (
	"context"
	"sync"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"
)

type state struct {
	resources     map[string]domain.Resource
	blocks        map[string]domain.BlockedInterval
	rentals       map[string]domain.Rental
	changes       []domain.RentalStatusChange
	payments      map[string]domain.PaymentRecord
	webhooks      []domain.PaymentWebhook
	damage        map[string]domain.DamageReport
	notifications []domain.Notification
}

func newState() *state {
	return &state{
		resources: make(map[string]domain.Resource),
		blocks:    make(map[string]domain.BlockedInterval),
		rentals:   make(map[string]domain.Rental),
		payments:  make(map[string]domain.PaymentRecord),
		damage:    make(map[string]domain.DamageReport),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	for k, v := range s.rentals {
		c.rentals[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.damage {
		c.damage[k] = v
	}
	c.changes = append([]domain.RentalStatusChange(nil), s.changes...)
	c.webhooks = append([]domain.PaymentWebhook(nil), s.webhooks...)
	c.notifications = append([]domain.Notification(nil), s.notifications...)
	return c
}

// Store holds all tables behind one lock. txMu serializes units of work so a
// resource lock and a plain transaction behave the same: exclusive.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
	now  func() time.Time

	repository.Repos
}

type Option func(*Store)

// WithClock overrides the timestamp source used for created_on/updated_on.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Repos = s.repos(false)
	return s
}

func (s *Store) repos(inTx bool) repository.Repos {
	b := base{s: s, inTx: inTx}
	return repository.Repos{
		Resources:     &resourceRepo{b},
		Blocks:        &blockRepo{b},
		Rentals:       &rentalRepo{b},
		Payments:      &paymentRepo{b},
		Damage:        &damageRepo{b},
		Notifications: &notificationRepo{b},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// WithinResourceLock is WithinTx: every unit of work is already exclusive.
func (s *Store) WithinResourceLock(ctx context.Context, resourceID string, fn func(r repository.Repos) error) error {
	return s.WithinTx(ctx, fn)
}

// base carries the store and whether the caller already owns txMu. Writes
// outside a unit of work take txMu so a rollback cannot discard them.
type base struct {
	s    *Store
	inTx bool
}

func (b base) write(fn func(d *state, now time.Time) error) error {
	if !b.inTx {
		b.s.txMu.Lock()
		defer b.s.txMu.Unlock()
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return fn(b.s.data, b.s.now())
}

func (b base) read(fn func(d *state)) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	fn(b.s.data)
}
