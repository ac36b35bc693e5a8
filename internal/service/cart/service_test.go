package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
)

// memoryInventory serves product lookups from a map. Catalog listing methods
// are not used by the cart and stay unimplemented.
type memoryInventory struct {
	productrepo.Repository
	products map[string]domain.Product
	batches  int
}

func (m *memoryInventory) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memoryInventory) GetByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	m.batches++
	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fixture struct {
	svc       *Service
	inventory *memoryInventory
	carts     cartrepo.Repository
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inv := &memoryInventory{products: map[string]domain.Product{}}
	for _, p := range products {
		inv.products[p.ID] = p
	}
	carts := cartrepo.NewRedis(client, time.Hour)
	return &fixture{svc: New(carts, inv, nil), inventory: inv, carts: carts, redis: mr}
}

func product(id, name, price string, stock int) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Available:     true,
		StockQuantity: stock,
	}
}

func TestAddPersistsAndAccumulates(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 2, false)
	require.NoError(t, err)
	c, _, err := f.svc.Add(ctx, "s1", "a", 3, false)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Quantity("a"))

	stored, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity("a"))
	assert.Equal(t, "125.00", stored.TotalPrice().StringFixed(2))
}

func TestAddRejectsUnavailableAndOutOfStock(t *testing.T) {
	hidden := product("h", "Hidden", "10.00", 5)
	hidden.Available = false
	f := newFixture(t, hidden, product("z", "Zero", "10.00", 0))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "h", 1, false)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, _, err = f.svc.Add(ctx, "s1", "z", 1, false)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, _, err = f.svc.Add(ctx, "s1", "missing", 1, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.False(t, f.redis.Exists("cart:s1"))
}

func TestAddReportsRemainingStock(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 4))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 3, false)
	require.NoError(t, err)

	_, _, err = f.svc.Add(ctx, "s1", "a", 2, false)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	c, err := f.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Quantity("a"))
}

func TestAddQuantityCapLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "1.00", 100))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 15, false)
	require.NoError(t, err)

	_, _, err = f.svc.Add(ctx, "s1", "a", 6, false)
	assert.ErrorIs(t, err, domain.ErrQuantityLimitExceeded)

	_, _, err = f.svc.Add(ctx, "s1", "a", 21, true)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	c, err := f.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 15, c.Quantity("a"))
}

func TestQuantityRangeIsCheckedBeforeStock(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "1.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 25, false)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, _, err = f.svc.Add(ctx, "s1", "a", 25, true)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, _, err = f.svc.Update(ctx, "s1", "a", 25)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, _, err = f.svc.Add(ctx, "s1", "a", 8, false)
	require.NoError(t, err)
	_, _, err = f.svc.Add(ctx, "s1", "a", 15, false)
	assert.ErrorIs(t, err, domain.ErrQuantityLimitExceeded)

	c, err := f.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Quantity("a"))
}

func TestUpdateSetsAndRemoves(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 2, false)
	require.NoError(t, err)

	c, _, err := f.svc.Update(ctx, "s1", "a", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Quantity("a"))

	_, _, err = f.svc.Update(ctx, "s1", "a", 11)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)

	c, _, err = f.svc.Update(ctx, "s1", "a", 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestRemoveIsIdempotent(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 1, false)
	require.NoError(t, err)

	removed, err := f.svc.Remove(ctx, "s1", "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.svc.Remove(ctx, "s1", "a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClearDeletesStoredCart(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 1, false)
	require.NoError(t, err)
	require.True(t, f.redis.Exists("cart:s1"))

	require.NoError(t, f.svc.Clear(ctx, "s1"))
	assert.False(t, f.redis.Exists("cart:s1"))
}

func TestCleanUnavailableEvictsInCartOrder(t *testing.T) {
	a := product("a", "Ambre", "10.00", 10)
	b := product("b", "Bergamote", "10.00", 10)
	c := product("c", "Cedre", "10.00", 10)
	f := newFixture(t, a, b, c)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, _, err := f.svc.Add(ctx, "s1", id, 1, false)
		require.NoError(t, err)
	}

	b.Available = false
	f.inventory.products["b"] = b
	delete(f.inventory.products, "c")

	removed, err := f.svc.CleanUnavailable(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bergamote", "Cedre"}, removed)

	cart, err := f.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, cart.ProductIDs())
}

func TestReconcileClampsAndRemovesWithOrderedNotices(t *testing.T) {
	a := product("a", "Ambre", "10.00", 10)
	b := product("b", "Bergamote", "4.50", 10)
	f := newFixture(t, a, b)
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 8, false)
	require.NoError(t, err)
	_, _, err = f.svc.Add(ctx, "s1", "b", 1, false)
	require.NoError(t, err)

	a.StockQuantity = 5
	f.inventory.products["a"] = a
	b.Available = false
	f.inventory.products["b"] = b

	proj, notices, err := f.svc.Reconcile(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeAdjusted, notices[0].Kind)
	assert.Equal(t, "a", notices[0].ProductID)
	assert.Equal(t, 5, notices[0].Stock)
	assert.Equal(t, NoticeRemoved, notices[1].Kind)
	assert.Equal(t, "b", notices[1].ProductID)

	assert.Equal(t, 5, proj.Len())
	assert.Equal(t, "50.00", proj.Total().StringFixed(2))

	stored, err := f.carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity("a"))
	assert.False(t, stored.Has("b"))
}

func TestReconcileUntouchedCartProducesNoNotices(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "10.00", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 2, false)
	require.NoError(t, err)

	_, notices, err := f.svc.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestViewUsesSingleBatchLookup(t *testing.T) {
	f := newFixture(t, product("a", "Ambre", "25.00", 10), product("b", "Bergamote", "12.50", 10))
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, "s1", "a", 2, false)
	require.NoError(t, err)
	_, _, err = f.svc.Add(ctx, "s1", "b", 1, false)
	require.NoError(t, err)

	proj, err := f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.inventory.batches)

	snap := proj.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "a", snap.Items[0].ProductID)
	assert.Equal(t, "25.00", snap.Items[0].Price)
	assert.Equal(t, "50.00", snap.Items[0].TotalPrice)
	assert.Equal(t, "62.50", snap.TotalPrice)
	assert.Equal(t, 3, snap.TotalQuantity)
	assert.Equal(t, 2, snap.TotalItems)
	assert.False(t, snap.IsEmpty)
}

type failingStore struct {
	cartrepo.Repository
}

func (failingStore) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	return domain.NewCart(sessionID), nil
}

func (failingStore) Save(context.Context, *domain.Cart) error {
	return errors.New("store unavailable")
}

func TestAddSurfacesStoreFailure(t *testing.T) {
	inv := &memoryInventory{products: map[string]domain.Product{"a": product("a", "Ambre", "1.00", 5)}}
	svc := New(failingStore{}, inv, nil)

	_, _, err := svc.Add(context.Background(), "s1", "a", 1, false)
	assert.EqualError(t, err, "store unavailable")
}
