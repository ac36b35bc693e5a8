package cart

import (
	"iter"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// LineItem is one cart line joined with its current product row.
type LineItem struct {
	Product    domain.Product
	Name       string
	Price      decimal.Decimal
	Quantity   int
	TotalPrice decimal.Decimal
	Available  bool
}

// Projection is a read-only view of a cart resolved against inventory.
// Lines whose product no longer exists are skipped by Items but still count
// towards the totals, which are computed from the cached line prices.
type Projection struct {
	cart     *domain.Cart
	products map[string]domain.Product
}

func NewProjection(c *domain.Cart, products map[string]domain.Product) *Projection {
	if products == nil {
		products = map[string]domain.Product{}
	}
	return &Projection{cart: c, products: products}
}

func (p *Projection) Cart() *domain.Cart {
	return p.cart
}

// Items yields resolved lines in cart order.
func (p *Projection) Items() iter.Seq[LineItem] {
	return func(yield func(LineItem) bool) {
		for _, line := range p.cart.Lines {
			prod, ok := p.products[line.ProductID]
			if !ok {
				continue
			}
			price := line.UnitPrice()
			item := LineItem{
				Product:    prod,
				Name:       line.Name,
				Price:      price,
				Quantity:   line.Quantity,
				TotalPrice: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
				Available:  line.Available,
			}
			if !yield(item) {
				return
			}
		}
	}
}

func (p *Projection) Total() decimal.Decimal {
	return p.cart.TotalPrice()
}

func (p *Projection) Len() int {
	return p.cart.Len()
}

func (p *Projection) TotalItems() int {
	return p.cart.TotalItems()
}

func (p *Projection) IsEmpty() bool {
	return p.cart.IsEmpty()
}

// Snapshot is the serializable form of a projection. Money is rendered as
// fixed two-decimal strings.
type Snapshot struct {
	Items         []SnapshotItem `json:"items"`
	TotalPrice    string         `json:"total_price"`
	TotalQuantity int            `json:"total_quantity"`
	TotalItems    int            `json:"total_items"`
	IsEmpty       bool           `json:"is_empty"`
}

type SnapshotItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	TotalPrice string `json:"total_price"`
	Available  bool   `json:"available"`
}

func (p *Projection) Snapshot() Snapshot {
	items := []SnapshotItem{}
	for item := range p.Items() {
		items = append(items, SnapshotItem{
			ProductID:  item.Product.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price.StringFixed(2),
			TotalPrice: item.TotalPrice.StringFixed(2),
			Available:  item.Available,
		})
	}
	return Snapshot{
		Items:         items,
		TotalPrice:    p.Total().StringFixed(2),
		TotalQuantity: p.Len(),
		TotalItems:    p.TotalItems(),
		IsEmpty:       p.IsEmpty(),
	}
}
