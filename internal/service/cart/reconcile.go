package cart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type NoticeKind string

const (
	NoticeRemoved  NoticeKind = "removed"
	NoticeAdjusted NoticeKind = "adjusted"
)

// Notice tells the shopper that a line changed because inventory moved.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Stock     int        `json:"stock,omitempty"`
	Message   string     `json:"message"`
}

// Reconcile brings the cart in line with current inventory: lines for products
// that are gone, unavailable or out of stock are removed, and quantities above
// stock are clamped. Notices are returned in cart order, one per affected line.
func (s *Service) Reconcile(ctx context.Context, sessionID string) (*Projection, []Notice, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if c.IsEmpty() {
		return NewProjection(c, nil), nil, nil
	}

	products, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, nil, err
	}

	var notices []Notice
	// Mutations below reshape c.Lines, so scan a copy.
	lines := append([]domain.CartLine(nil), c.Lines...)
	for _, line := range lines {
		name := line.Name
		p, ok := products[line.ProductID]
		if ok && p.Name != "" {
			name = p.Name
		}
		if name == "" {
			name = "Unknown product"
		}

		if !ok || !p.IsAvailableForPurchase() {
			c.Remove(line.ProductID)
			notices = append(notices, Notice{
				Kind:      NoticeRemoved,
				ProductID: line.ProductID,
				Name:      name,
				Message:   fmt.Sprintf("%q was removed from your cart because it is no longer available.", name),
			})
			continue
		}
		if line.Quantity > p.StockQuantity {
			if err := c.Add(p, p.StockQuantity, true); err != nil {
				return nil, nil, err
			}
			notices = append(notices, Notice{
				Kind:      NoticeAdjusted,
				ProductID: line.ProductID,
				Name:      name,
				Stock:     p.StockQuantity,
				Message:   fmt.Sprintf("Quantity of %q was adjusted to the available stock (%d).", name, p.StockQuantity),
			})
		}
	}

	if err := s.save(ctx, c); err != nil {
		s.record("reconcile", err)
		return nil, nil, err
	}
	if len(notices) > 0 {
		s.record("reconcile", nil)
		s.logger.WithFields(logrus.Fields{"session": sessionID, "notices": len(notices)}).Info("cart: reconciled with inventory")
	}
	return NewProjection(c, products), notices, nil
}
