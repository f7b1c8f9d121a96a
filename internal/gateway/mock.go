package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Mock is an in-process provider used in development and tests. Intents
// start in requires_payment_method; tests drive them with SetStatus.
type Mock struct {
	mu          sync.Mutex
	intents     map[string]*Intent
	byKey       map[string]string
	failNext    []error
	createCalls int
}

func NewMock() *Mock {
	return &Mock{
		intents: make(map[string]*Intent),
		byKey:   make(map[string]string),
	}
}

// FailNext makes the next calls return errs in order before any work is done.
func (m *Mock) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = append(m.failNext, errs...)
}

func (m *Mock) popFailure() error {
	if len(m.failNext) == 0 {
		return nil
	}
	err := m.failNext[0]
	m.failNext = m.failNext[1:]
	return err
}

// CreateCalls counts intents actually created.
func (m *Mock) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *Mock) SetStatus(intentID string, status IntentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in, ok := m.intents[intentID]; ok {
		in.Status = status
	}
}

func (m *Mock) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	if id, ok := m.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		cp := *m.intents[id]
		return &cp, nil
	}
	id := "pi_" + uuid.NewString()
	in := &Intent{
		ID:             id,
		ClientSecret:   id + "_secret_" + uuid.NewString()[:8],
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Status:         StatusRequiresPaymentMethod,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
	}
	m.intents[id] = in
	if req.IdempotencyKey != "" {
		m.byKey[req.IdempotencyKey] = id
	}
	m.createCalls++
	cp := *in
	return &cp, nil
}

func (m *Mock) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	in, ok := m.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *Mock) FindByIdempotencyKey(ctx context.Context, key string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *m.intents[id]
	return &cp, nil
}

func (m *Mock) CancelIntent(ctx context.Context, intentID string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	in, ok := m.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if in.Status.Terminal() {
		return nil, ErrInvalidState
	}
	in.Status = StatusCanceled
	cp := *in
	return &cp, nil
}

func (m *Mock) CaptureIntent(ctx context.Context, intentID string, amount *int64) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	in, ok := m.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if in.Status.Terminal() {
		return nil, ErrInvalidState
	}
	in.AmountReceived = in.AmountCents
	if amount != nil {
		in.AmountReceived = *amount
	}
	in.Status = StatusSucceeded
	cp := *in
	return &cp, nil
}
