package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type productSeed struct {
	Slug          string
	Name          string
	Description   string
	Category      string
	Price         string
	OriginalPrice string
	Stock         int
	Available     bool
}

var categories = []domain.Category{
	{Name: "Eaux de Parfum", Slug: "eaux-de-parfum"},
	{Name: "Colognes", Slug: "colognes"},
}

var products = []productSeed{
	{
		Slug:        "eau-de-nuit",
		Name:        "Eau de Nuit",
		Description: "Amber and vanilla evening fragrance",
		Category:    "eaux-de-parfum",
		Price:       "49.99",
		Stock:       12,
		Available:   true,
	},
	{
		Slug:          "ambre-dore",
		Name:          "Ambre Doré",
		Description:   "Warm amber, limited edition",
		Category:      "eaux-de-parfum",
		Price:         "59.90",
		OriginalPrice: "79.90",
		Stock:         5,
		Available:     true,
	},
	{
		Slug:        "bergamote-fraiche",
		Name:        "Bergamote Fraîche",
		Description: "Citrus cologne",
		Category:    "colognes",
		Price:       "25.00",
		Stock:       30,
		Available:   true,
	},
	{
		Slug:        "vetiver-classique",
		Name:        "Vétiver Classique",
		Description: "Back in stock soon",
		Category:    "colognes",
		Price:       "32.50",
		Stock:       0,
		Available:   true,
	},
}

// Apply inserts a demo catalog for manual testing. It is idempotent via upserts on slug.
func Apply(ctx context.Context, cats CategoryWriter, prods ProductWriter) error {
	ids := make(map[string]string, len(categories))
	for _, c := range categories {
		saved, err := cats.Upsert(ctx, c)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		ids[c.Slug] = saved.ID
	}

	for _, s := range products {
		p := domain.Product{
			CategoryID:    ids[s.Category],
			Name:          s.Name,
			Slug:          s.Slug,
			Description:   s.Description,
			Price:         decimal.RequireFromString(s.Price),
			Available:     s.Available,
			StockQuantity: s.Stock,
		}
		if s.OriginalPrice != "" {
			original := decimal.RequireFromString(s.OriginalPrice)
			p.OriginalPrice = &original
		}
		if _, err := prods.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", s.Slug, err)
		}
	}
	return nil
}
