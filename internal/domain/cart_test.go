package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id, price string) Product {
	return Product{
		ID:            id,
		Name:          "Product " + id,
		Price:         decimal.RequireFromString(price),
		Available:     true,
		StockQuantity: 50,
	}
}

func TestCartAddAndTotals(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "25.00")

	require.NoError(t, c.Add(p, 2, false))

	assert.Equal(t, "50.00", c.TotalPrice().StringFixed(2))
	assert.Equal(t, 1, c.TotalItems())
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Dirty())

	removed, err := c.UpdateQuantity(p, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Quantity(p.ID))
}

func TestCartAddRejectsUnavailableProduct(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "10.00")
	p.Available = false

	err := c.Add(p, 1, false)
	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.True(t, c.IsEmpty())
	assert.False(t, c.Dirty())
}

func TestCartAddRejectsQuantityOutOfRange(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "10.00")

	for _, qty := range []int{0, -1, MaxLineQuantity + 1} {
		err := c.Add(p, qty, false)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "qty %d", qty)
	}
	assert.True(t, c.IsEmpty())
}

func TestCartCumulativeCap(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "3.10")

	require.NoError(t, c.Add(p, 15, false))
	before := c.Clone()

	err := c.Add(p, 6, false)
	assert.ErrorIs(t, err, ErrQuantityLimitExceeded)
	assert.Equal(t, before.Lines, c.Lines)

	require.NoError(t, c.Add(p, 5, false))
	assert.Equal(t, MaxLineQuantity, c.Quantity(p.ID))

	// Override replaces rather than accumulates.
	require.NoError(t, c.Add(p, 3, true))
	assert.Equal(t, 3, c.Quantity(p.ID))
}

func TestCartAddRefreshesCachedFields(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "10.00")
	require.NoError(t, c.Add(p, 1, false))

	p.Price = decimal.RequireFromString("12.50")
	p.Name = "Renamed"
	require.NoError(t, c.Add(p, 1, false))

	line, ok := c.Line(p.ID)
	require.True(t, ok)
	assert.Equal(t, "12.50", line.Price)
	assert.Equal(t, "Renamed", line.Name)
	assert.Equal(t, 2, line.Quantity)
}

func TestCartRemoveIsIdempotent(t *testing.T) {
	c := NewCart("sess")
	p := testProduct("p", "1.00")
	require.NoError(t, c.Add(p, 1, false))

	assert.True(t, c.Remove(p.ID))
	assert.False(t, c.Remove(p.ID))
	assert.False(t, c.Remove("missing"))
	assert.Equal(t, 0, c.Quantity(p.ID))
}

func TestCartRemoveUnavailableKeepsOrder(t *testing.T) {
	c := NewCart("sess")
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Add(testProduct(id, "1.00"), 1, false))
	}
	c.MarkClean()

	removed := c.RemoveUnavailable(map[string]bool{"a": true, "c": true})

	assert.Equal(t, []string{"Product b", "Product d"}, removed)
	assert.Equal(t, []string{"a", "c"}, c.ProductIDs())
	assert.True(t, c.Dirty())
}

func TestCartTotalIsExactDecimal(t *testing.T) {
	c := NewCart("sess")
	require.NoError(t, c.Add(testProduct("a", "0.10"), 3, false))
	require.NoError(t, c.Add(testProduct("b", "0.20"), 1, false))
	require.NoError(t, c.Add(testProduct("c", "19.99"), 7, false))

	want := decimal.RequireFromString("140.43")
	assert.True(t, want.Equal(c.TotalPrice()), "got %s", c.TotalPrice())
}

func TestCartJSONRoundTripPreservesTotal(t *testing.T) {
	c := NewCart("sess")
	require.NoError(t, c.Add(testProduct("a", "0.10"), 3, false))
	require.NoError(t, c.Add(testProduct("b", "33.33"), 3, false))

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded Cart
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, c.TotalPrice().String(), decoded.TotalPrice().String())
	assert.Equal(t, c.Lines, decoded.Lines)
	assert.False(t, decoded.Dirty())
}

func TestCartClear(t *testing.T) {
	c := NewCart("sess")
	c.Clear()
	assert.False(t, c.Dirty())

	require.NoError(t, c.Add(testProduct("a", "1.00"), 1, false))
	c.MarkClean()
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Dirty())
}
