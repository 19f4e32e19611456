// Package memory provides an in-process payment store for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	now      func() time.Time
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository creates an empty in-memory payment repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*domain.Payment),
		now:      time.Now,
	}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return repository.ErrDuplicateID
	}

	payment.CreatedAt = r.now().UTC()
	stored := *payment
	r.payments[payment.ID] = &stored
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy so callers cannot mutate stored state.
	copy := *payment
	return &copy, nil
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

// TransitionStatus moves a payment from one status to another atomically.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if payment.Status != from {
		return repository.ErrStatusMismatch
	}
	payment.Status = to
	return nil
}

// Len returns the number of stored payments.
func (r *PaymentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}

// Close is a no-op.
func (r *PaymentRepository) Close() error {
	return nil
}
