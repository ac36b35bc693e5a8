package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
)

// Service applies cart mutations for a session and persists the result.
// A failed call never saves, so the stored cart keeps its previous state.
type Service struct {
	carts    cartStore
	products inventory
	logger   logrus.FieldLogger
}

type cartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type inventory interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

func New(carts cartrepo.Repository, products productrepo.Repository, logger logrus.FieldLogger) *Service {
	return &Service{carts: carts, products: products, logger: logging.OrDiscard(logger)}
}

// StockError reports how many more units of a product can be put in the cart.
type StockError struct {
	ProductID string
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d available", e.ProductID, e.Available)
}

func (e *StockError) Unwrap() error {
	return domain.ErrInsufficientStock
}

// Get returns the session cart without touching inventory.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.carts.Get(ctx, sessionID)
}

// Add puts quantity units of a product in the cart, or sets the quantity when override is set.
func (s *Service) Add(ctx context.Context, sessionID, productID string, quantity int, override bool) (*domain.Cart, *domain.Product, error) {
	c, p, err := s.add(ctx, sessionID, productID, quantity, override)
	s.record("add", err)
	return c, p, err
}

func (s *Service) add(ctx context.Context, sessionID, productID string, quantity int, override bool) (*domain.Cart, *domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsAvailableForPurchase() {
		if !p.Available {
			return nil, p, domain.ErrInvalidProduct
		}
		return nil, p, domain.ErrOutOfStock
	}
	if quantity <= 0 || quantity > domain.MaxLineQuantity {
		return nil, p, domain.ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, p, err
	}

	current := c.Quantity(p.ID)
	requested := quantity
	if !override {
		requested = current + quantity
		if requested > domain.MaxLineQuantity {
			return nil, p, domain.ErrQuantityLimitExceeded
		}
	}
	if requested > p.StockQuantity {
		available := p.StockQuantity
		if !override {
			available -= current
		}
		return nil, p, &StockError{ProductID: p.ID, Available: available}
	}

	if err := c.Add(*p, quantity, override); err != nil {
		return nil, p, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, p, err
	}
	return c, p, nil
}

// Update sets the quantity of a product; a quantity of zero or less removes it.
func (s *Service) Update(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, *domain.Product, error) {
	c, p, err := s.update(ctx, sessionID, productID, quantity)
	s.record("update", err)
	return c, p, err
}

func (s *Service) update(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, *domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if quantity > domain.MaxLineQuantity {
		return nil, p, domain.ErrInvalidQuantity
	}
	if quantity > 0 && quantity > p.StockQuantity {
		return nil, p, &StockError{ProductID: p.ID, Available: p.StockQuantity}
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, p, err
	}
	if _, err := c.UpdateQuantity(*p, quantity); err != nil {
		return nil, p, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, p, err
	}
	return c, p, nil
}

// Remove drops a product from the cart and reports whether it was there.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (bool, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		s.record("remove", err)
		return false, err
	}
	removed := c.Remove(productID)
	err = s.save(ctx, c)
	s.record("remove", err)
	return removed, err
}

// Clear deletes the session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	err := s.carts.Delete(ctx, sessionID)
	s.record("clear", err)
	return err
}

// CleanUnavailable evicts lines whose product is gone or no longer available
// and returns their display names in cart order.
func (s *Service) CleanUnavailable(ctx context.Context, sessionID string) ([]string, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, nil
	}
	products, err := s.products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	available := make(map[string]bool, len(products))
	for id, p := range products {
		available[id] = p.Available
	}
	removed := c.RemoveUnavailable(available)
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.WithFields(logrus.Fields{"session": sessionID, "removed": len(removed)}).Info("cart: evicted unavailable products")
	}
	return removed, nil
}

// View loads the cart and joins it with one batch inventory lookup.
func (s *Service) View(ctx context.Context, sessionID string) (*Projection, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, c)
}

func (s *Service) project(ctx context.Context, c *domain.Cart) (*Projection, error) {
	products := map[string]domain.Product{}
	if !c.IsEmpty() {
		var err error
		products, err = s.products.GetByIDs(ctx, c.ProductIDs())
		if err != nil {
			return nil, err
		}
	}
	return NewProjection(c, products), nil
}

func (s *Service) save(ctx context.Context, c *domain.Cart) error {
	if !c.Dirty() {
		return nil
	}
	return s.carts.Save(ctx, c)
}

func (s *Service) record(op string, err error) {
	metrics.CartMutations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidProduct):
		return "invalid_product"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrQuantityLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrInsufficientStock):
		return "stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
