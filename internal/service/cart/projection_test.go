package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestProjectionSkipsDeletedProductsButCountsThem(t *testing.T) {
	c := domain.NewCart("s1")
	require.NoError(t, c.Add(product("a", "Ambre", "25.00", 10), 2, false))
	require.NoError(t, c.Add(product("gone", "Gone", "5.00", 10), 1, false))

	proj := NewProjection(c, map[string]domain.Product{"a": product("a", "Ambre", "25.00", 10)})

	var ids []string
	for item := range proj.Items() {
		ids = append(ids, item.Product.ID)
	}
	assert.Equal(t, []string{"a"}, ids)
	assert.Equal(t, "55.00", proj.Total().StringFixed(2))
	assert.Equal(t, 3, proj.Len())
	assert.Equal(t, 2, proj.TotalItems())
}

func TestProjectionItemsStopsEarly(t *testing.T) {
	c := domain.NewCart("s1")
	products := map[string]domain.Product{}
	for _, id := range []string{"a", "b", "c"} {
		p := product(id, id, "1.00", 10)
		products[id] = p
		require.NoError(t, c.Add(p, 1, false))
	}

	seen := 0
	for range NewProjection(c, products).Items() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestEmptySnapshot(t *testing.T) {
	snap := NewProjection(domain.NewCart("s1"), nil).Snapshot()
	assert.True(t, snap.IsEmpty)
	assert.Equal(t, "0.00", snap.TotalPrice)
	assert.NotNil(t, snap.Items)
}
