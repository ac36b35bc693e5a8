package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores one cart per session id. Save replaces the whole cart,
// so concurrent requests for the same session resolve as last write wins.
type Repository interface {
	// Get returns the session's cart, or a new empty cart when none is stored.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
