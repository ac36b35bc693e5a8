package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single product in a cart.
const MaxLineQuantity = 20

// Cart is the session-owned collection of pending purchase lines.
// Lines keep insertion order and hold at most one entry per product.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updatedAt"`

	dirty bool
}

// CartLine caches product data as of the last mutating call.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Lines: []CartLine{}}
}

// UnitPrice parses the stored price snapshot. Prices are written by Add only,
// so a malformed value means the stored cart was tampered with and counts as zero.
func (l CartLine) UnitPrice() decimal.Decimal {
	d, err := decimal.NewFromString(l.Price)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Add puts quantity units of p into the cart. With override the line quantity is
// replaced, otherwise it is incremented. The cart is untouched when an error is returned.
func (c *Cart) Add(p Product, quantity int, override bool) error {
	if !p.Available {
		return ErrInvalidProduct
	}
	if quantity <= 0 || quantity > MaxLineQuantity {
		return ErrInvalidQuantity
	}

	idx := c.index(p.ID)
	newQty := quantity
	if !override && idx >= 0 {
		newQty = c.Lines[idx].Quantity + quantity
		if newQty > MaxLineQuantity {
			return ErrQuantityLimitExceeded
		}
	}

	line := CartLine{
		ProductID: p.ID,
		Quantity:  newQty,
		Price:     p.Price.StringFixed(2),
		Name:      p.Name,
		Available: p.Available,
	}
	if idx >= 0 {
		c.Lines[idx] = line
	} else {
		c.Lines = append(c.Lines, line)
	}
	c.touch()
	return nil
}

// Remove drops the line for productID and reports whether it existed.
func (c *Cart) Remove(productID string) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	c.touch()
	return true
}

// UpdateQuantity sets the quantity for p; a quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(p Product, quantity int) (bool, error) {
	if quantity <= 0 {
		return c.Remove(p.ID), nil
	}
	if err := c.Add(p, quantity, true); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveUnavailable evicts every line whose product id is not in available and
// returns the evicted display names in scan order.
func (c *Cart) RemoveUnavailable(available map[string]bool) []string {
	var removed []string
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if available[line.ProductID] {
			kept = append(kept, line)
			continue
		}
		name := line.Name
		if name == "" {
			name = "Unknown product"
		}
		removed = append(removed, name)
	}
	c.Lines = kept
	if len(removed) > 0 {
		c.touch()
	}
	return removed
}

func (c *Cart) Clear() {
	if len(c.Lines) == 0 {
		return
	}
	c.Lines = []CartLine{}
	c.touch()
}

func (c *Cart) Line(productID string) (CartLine, bool) {
	idx := c.index(productID)
	if idx < 0 {
		return CartLine{}, false
	}
	return c.Lines[idx], true
}

func (c *Cart) Has(productID string) bool {
	return c.index(productID) >= 0
}

// Quantity returns the quantity held for productID, or 0.
func (c *Cart) Quantity(productID string) int {
	if line, ok := c.Line(productID); ok {
		return line.Quantity
	}
	return 0
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Len is the total quantity across all lines.
func (c *Cart) Len() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// TotalItems is the number of distinct products.
func (c *Cart) TotalItems() int {
	return len(c.Lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalPrice sums price x quantity over the stored lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.UnitPrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Dirty reports whether the cart changed since it was loaded or last saved.
func (c *Cart) Dirty() bool {
	return c.dirty
}

func (c *Cart) MarkClean() {
	c.dirty = false
}

// Clone returns a deep copy that shares nothing with c.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Lines = make([]CartLine, len(c.Lines))
	copy(out.Lines, c.Lines)
	return &out
}

func (c *Cart) index(productID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.dirty = true
	c.UpdatedAt = time.Now().UTC()
}
