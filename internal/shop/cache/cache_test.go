package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	pkgcache "github.com/fekuna/omnipos-stock-sync/pkg/cache"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testShop() *model.Shop {
	return &model.Shop{
		BaseModel:     model.BaseModel{ID: "s1"},
		Domain:        "glow.myshopify.com",
		StockSettings: model.StockSettings{LowStockThresholdUnits: 20, SalesVelocityThreshold: 4},
	}
}

func TestMemoryExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory(time.Minute, clock.Now)
	ctx := context.Background()

	c.Put(ctx, testShop())

	got, ok := c.Get(ctx, "glow.myshopify.com")
	require.True(t, ok)
	assert.Equal(t, 20.0, got.LowStockThresholdUnits)

	clock.Advance(59 * time.Second)
	_, ok = c.Get(ctx, "glow.myshopify.com")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "glow.myshopify.com")
	assert.False(t, ok, "entry expires exactly at ttl")
}

func TestMemoryInvalidate(t *testing.T) {
	c := NewMemory(time.Hour, nil)
	ctx := context.Background()

	c.Put(ctx, testShop())
	c.Invalidate(ctx, "glow.myshopify.com")

	_, ok := c.Get(ctx, "glow.myshopify.com")
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	c := NewMemory(time.Hour, nil)
	ctx := context.Background()
	c.Put(ctx, testShop())

	got, _ := c.Get(ctx, "glow.myshopify.com")
	got.LowStockThresholdUnits = 999

	again, _ := c.Get(ctx, "glow.myshopify.com")
	assert.Equal(t, 20.0, again.LowStockThresholdUnits)
}

func TestRedisRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgcache.NewRedisClient(&pkgcache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	c := NewRedis(client, time.Minute, logger.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, "glow.myshopify.com")
	assert.False(t, ok)

	c.Put(ctx, testShop())
	got, ok := c.Get(ctx, "glow.myshopify.com")
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 4.0, got.SalesVelocityThreshold)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "glow.myshopify.com")
	assert.False(t, ok)

	c.Put(ctx, testShop())
	c.Invalidate(ctx, "glow.myshopify.com")
	_, ok = c.Get(ctx, "glow.myshopify.com")
	assert.False(t, ok)
}

func TestRedisIgnoresCorruptEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgcache.NewRedisClient(&pkgcache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, mr.Set("shop:settings:glow.myshopify.com", "{not json"))

	c := NewRedis(client, time.Minute, logger.NewNop())
	_, ok := c.Get(context.Background(), "glow.myshopify.com")
	assert.False(t, ok)
}
