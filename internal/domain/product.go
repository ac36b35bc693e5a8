package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string           `json:"id"`
	CategoryID    string           `json:"categoryId,omitempty"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description,omitempty"`
	Image         string           `json:"image,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Available     bool             `json:"available"`
	StockQuantity int              `json:"stockQuantity"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (p Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// IsAvailableForPurchase reports whether the product is listed and has stock left.
func (p Product) IsAvailableForPurchase() bool {
	return p.Available && p.IsInStock()
}

func (p Product) HasDiscount() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// DiscountPercentage returns the rounded percentage off the original price, or 0.
func (p Product) DiscountPercentage() int {
	if !p.HasDiscount() {
		return 0
	}
	off := p.OriginalPrice.Sub(p.Price).Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}
