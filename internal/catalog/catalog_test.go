package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	name     string
	products []models.Product
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchCatalog(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeProvider) set(products ...models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
}

func product(id string) models.Product {
	return models.Product{ID: id, Name: id, Price: decimal.NewFromInt(10), Active: true}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(providers ...Provider) (*Cache, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(NewChain(zerolog.Nop(), providers...), 5*time.Second, nil)
	c.SetClock(clk.now)
	return c, clk
}

func TestCache_LoadUsesSnapshotWithinCooldown(t *testing.T) {
	live := &fakeProvider{name: "store", products: []models.Product{product("a")}}
	c, clk := newTestCache(live)
	ctx := context.Background()

	require.Len(t, c.Load(ctx), 1)
	live.set(product("a"), product("b"))

	clk.advance(4 * time.Second)
	assert.Len(t, c.Load(ctx), 1, "served from cache")
	assert.Equal(t, 1, live.calls)

	clk.advance(2 * time.Second)
	assert.Len(t, c.Load(ctx), 2, "cooldown expired")
	assert.Equal(t, 2, live.calls)
}

func TestCache_RefreshBypassesCooldown(t *testing.T) {
	live := &fakeProvider{name: "store", products: []models.Product{product("a")}}
	c, _ := newTestCache(live)
	ctx := context.Background()

	c.Load(ctx)
	live.set(product("a"), product("b"), product("c"))

	c.Refresh(ctx)
	got := c.Load(ctx)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, live.calls, "Load after Refresh is served by the refreshed snapshot")
}

func TestCache_EmptySnapshotIsRefetched(t *testing.T) {
	live := &fakeProvider{name: "store"}
	c, _ := newTestCache(live)
	ctx := context.Background()

	assert.Empty(t, c.Load(ctx))
	assert.Empty(t, c.Load(ctx))
	assert.Equal(t, 2, live.calls)
}

func TestChain_FallsThroughInOrder(t *testing.T) {
	live := &fakeProvider{name: "store", err: errors.New("database is locked")}
	broken := &fakeProvider{name: "sample", err: errors.New("bad embed")}
	c, _ := newTestCache(live, broken, PlaceholderProvider{})

	got := c.Load(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "demo-1", got[0].ID)
	assert.Equal(t, "placeholder", c.Source())
}

func TestChain_SampleFallback(t *testing.T) {
	live := &fakeProvider{name: "store", err: errors.New("no such table: products")}
	c, _ := newTestCache(live, SampleProvider{}, PlaceholderProvider{})

	got := c.Load(context.Background())
	assert.Len(t, got, 6)
	assert.Equal(t, "sample", c.Source())
}

func TestCache_Lookup(t *testing.T) {
	c, _ := newTestCache(&fakeProvider{name: "store", products: []models.Product{product("a"), product("b")}})

	p, ok := c.Lookup(context.Background(), "b")
	assert.True(t, ok)
	assert.Equal(t, "b", p.ID)

	_, ok = c.Lookup(context.Background(), "zzz")
	assert.False(t, ok)
}

func TestSampleProvider_ResolvesNames(t *testing.T) {
	products, err := SampleProvider{}.FetchCatalog(context.Background())
	require.NoError(t, err)

	byName := map[string]models.Product{}
	for _, p := range products {
		byName[p.Name] = p
	}
	saree := byName["Banarasi Silk Saree"]
	assert.Equal(t, "Sarees", saree.Category)
	assert.Equal(t, "Master Weaver Raghunath Das", saree.Artisan)
	assert.True(t, saree.Price.Equal(decimal.NewFromInt(15000)))
	assert.True(t, saree.HasTag("bridal"))

	assert.Empty(t, byName["South Indian Spice Box"].Artisan)
}

func TestSeed_IsIdempotent(t *testing.T) {
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate())
	ctx := context.Background()

	first, err := Seed(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Categories: 6, Artisans: 4, Products: 6, Orders: 3}, first)

	second, err := Seed(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, second)

	products, err := StoreProvider{Store: st}.FetchCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 6)

	orders, err := st.ListOrders(ctx, store.OrderFilter{Status: models.OrderStatusShipped})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Meera Krishnan", orders[0].CustomerName)
	assert.True(t, orders[0].TotalAmount.Valid)
}
