package repository

import (
	"context"

	"ridepay/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment and sets its CreatedAt.
	// The row is written in full or not at all.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	// Returns ErrNotFound if no payment exists with the given ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// UpdateStatus sets the status of a payment without checking the current one.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error

	// TransitionStatus sets the status to `to` only if it is currently `from`.
	// Returns ErrNotFound if the payment does not exist and ErrStatusMismatch
	// if it exists in another status.
	TransitionStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error
}
