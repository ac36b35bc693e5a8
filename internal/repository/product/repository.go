package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the inventory lookup used by the catalog and the cart core.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categorySlug string) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs resolves a batch of ids in one query. Unknown ids are absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
