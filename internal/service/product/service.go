package product

import (
	"context"
	"strings"

	"storefront/internal/domain"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo       productrepo.Repository
	categories categoryrepo.Repository
}

func New(repo productrepo.Repository, categories categoryrepo.Repository) *Service {
	return &Service{repo: repo, categories: categories}
}

// List returns the products on sale, optionally restricted to one category.
// An unknown category slug is ErrNotFound.
func (s *Service) List(ctx context.Context, categorySlug string) ([]domain.Product, error) {
	var (
		all []domain.Product
		err error
	)
	if categorySlug == "" {
		all, err = s.repo.List(ctx)
	} else {
		if _, err := s.categories.GetBySlug(ctx, categorySlug); err != nil {
			return nil, err
		}
		all, err = s.repo.ListByCategory(ctx, categorySlug)
	}
	if err != nil {
		return nil, err
	}
	listed := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.Available {
			listed = append(listed, p)
		}
	}
	return listed, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Search matches available products by name or description.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}
	found, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []domain.Product{}
	}
	return found, nil
}

func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return s.repo.Upsert(ctx, p)
}
