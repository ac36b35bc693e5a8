package order

import (
	"context"

	"storefront/internal/domain"
)

// CommitHook runs inside the creating transaction right before commit.
// Returning an error rolls the whole order back.
type CommitHook func(ctx context.Context) error

// PaymentUpdate mutates a locked order and reports whether anything changed.
type PaymentUpdate func(o *domain.Order) (bool, error)

type Repository interface {
	// Create persists the order and all of its items atomically.
	Create(ctx context.Context, o domain.Order, beforeCommit CommitHook) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForCustomer returns ErrUnauthorized when the order belongs to someone else.
	GetForCustomer(ctx context.Context, id, customerID string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// UpdatePayment applies fn while holding a row lock on the order.
	UpdatePayment(ctx context.Context, id string, fn PaymentUpdate) (*domain.Order, error)
}
