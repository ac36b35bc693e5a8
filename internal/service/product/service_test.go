package product

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

type stubProducts struct {
	productrepo.Repository
	all        []domain.Product
	byCategory map[string][]domain.Product
	searched   string
}

func (s *stubProducts) List(context.Context) ([]domain.Product, error) {
	return s.all, nil
}

func (s *stubProducts) ListByCategory(_ context.Context, slug string) ([]domain.Product, error) {
	return s.byCategory[slug], nil
}

func (s *stubProducts) Search(_ context.Context, q string) ([]domain.Product, error) {
	s.searched = q
	return nil, nil
}

type stubCategories struct {
	categoryrepo.Repository
	slugs map[string]bool
}

func (s stubCategories) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	if !s.slugs[slug] {
		return nil, domain.ErrNotFound
	}
	return &domain.Category{Slug: slug}, nil
}

func TestList_HidesUnavailable(t *testing.T) {
	repo := &stubProducts{
		all: []domain.Product{{ID: "a", Available: true}, {ID: "b", Available: false}},
		byCategory: map[string][]domain.Product{
			"parfums": {{ID: "c", Available: true}},
		},
	}
	svc := New(repo, stubCategories{slugs: map[string]bool{"parfums": true}})
	ctx := context.Background()

	got, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected products %+v", got)
	}

	got, err = svc.List(ctx, "parfums")
	if err != nil {
		t.Fatalf("List by category: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("unexpected category products %+v", got)
	}

	if _, err := svc.List(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}
}

func TestSearch_TrimsAndSkipsEmpty(t *testing.T) {
	repo := &stubProducts{}
	svc := New(repo, stubCategories{})
	ctx := context.Background()

	got, err := svc.Search(ctx, "   ")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v %v", got, err)
	}
	if repo.searched != "" {
		t.Fatalf("blank query must not hit the repository")
	}

	if _, err := svc.Search(ctx, " amb "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if repo.searched != "amb" {
		t.Fatalf("expected trimmed query, got %q", repo.searched)
	}
}
