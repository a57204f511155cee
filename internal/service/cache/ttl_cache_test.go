package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpires(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	c := NewTTLCache[float64](time.Minute)
	c.now = func() time.Time { return clock }

	c.Set("ETH", 3000)
	v, at, ok := c.Get("ETH")
	assert.True(t, ok)
	assert.Equal(t, 3000.0, v)
	assert.Equal(t, clock, at)

	clock = clock.Add(2 * time.Minute)
	_, _, ok = c.Get("ETH")
	assert.False(t, ok)
	assert.Empty(t, c.m)
}

func TestTTLCacheEvictKeepsRefreshedEntry(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	c := NewTTLCache[float64](time.Minute)
	c.now = func() time.Time { return clock }

	c.Set("ETH", 3000)
	stale := clock.Add(2 * time.Minute)

	// a tick refreshes the entry between a reader's expired check and its delete
	clock = stale
	c.Set("ETH", 3100)
	c.evict("ETH", stale)

	v, _, ok := c.Get("ETH")
	require.True(t, ok)
	assert.Equal(t, 3100.0, v)
}

func TestTTLCacheZeroTTLKeepsForever(t *testing.T) {
	c := NewTTLCache[string](0)
	c.Set("k", "v")
	v, _, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
