package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Prices []float64 `json:"prices"`
	Source string    `json:"source"`
}

func TestMemoryCacheRoundTripTyped(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(MemoryConfig{})
	defer mc.Close()

	in := sample{Prices: []float64{1, 2.5, 3}, Source: "provider"}
	require.NoError(t, mc.Set(ctx, "k", in, time.Minute))

	got, err := GetTyped[sample](ctx, mc, "k")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = GetTyped[sample](ctx, mc, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(MemoryConfig{})
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(MemoryConfig{MaxEntries: 2})
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(2 * time.Millisecond)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCachePingAfterClose(t *testing.T) {
	mc := NewMemoryCache(MemoryConfig{})
	require.NoError(t, mc.Ping(context.Background()))
	require.NoError(t, mc.Close())
	require.NoError(t, mc.Close())
	assert.Error(t, mc.Ping(context.Background()))
}

// forgetful loses every entry once forget is set, like an evicted Redis key.
type forgetful struct {
	*MemoryCache
	forget bool
}

func (f *forgetful) Get(ctx context.Context, key string, dest interface{}) error {
	if f.forget {
		return ErrCacheMiss
	}
	return f.MemoryCache.Get(ctx, key, dest)
}

func TestLayeredCachePromotesFromShared(t *testing.T) {
	ctx := context.Background()
	shared := &forgetful{MemoryCache: NewMemoryCache(MemoryConfig{})}
	lc := NewLayeredCache(shared, 10, time.Minute)
	defer lc.Close()

	require.NoError(t, shared.Set(ctx, "k", sample{Source: "warehouse"}, time.Hour))

	got, err := GetTyped[sample](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "warehouse", got.Source)

	shared.forget = true
	got, err = GetTyped[sample](ctx, lc, "k")
	require.NoError(t, err, "served locally")
	assert.Equal(t, "warehouse", got.Source)

	_, err = GetTyped[sample](ctx, lc, "other")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLayeredCacheCapsLocalTTL(t *testing.T) {
	ctx := context.Background()
	shared := &forgetful{MemoryCache: NewMemoryCache(MemoryConfig{})}
	lc := NewLayeredCache(shared, 10, time.Minute)
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "k", 7, 10*time.Millisecond))
	shared.forget = true
	time.Sleep(25 * time.Millisecond)

	var v int
	assert.ErrorIs(t, lc.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "history:eth:daily:30", Key("history", "ETH", "daily", 30))
	assert.Equal(t, "spot", Key("spot"))
}
