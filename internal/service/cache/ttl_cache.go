package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	v   V
	at  time.Time
	exp time.Time
}

// TTLCache is a small typed map whose entries expire.
type TTLCache[V any] struct {
	mu  sync.RWMutex
	m   map[string]entry[V]
	ttl time.Duration
	now func() time.Time
}

// NewTTLCache creates a cache whose entries live for ttl (0 = forever).
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{m: make(map[string]entry[V]), ttl: ttl, now: time.Now}
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// Get returns the value and the time it was stored.
func (c *TTLCache[V]) Get(key string) (V, time.Time, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || e.expired(now) {
		if ok {
			c.evict(key, now)
		}
		var zero V
		return zero, time.Time{}, false
	}
	return e.v, e.at, true
}

// evict drops key if it is still expired at now. A Set that landed after
// the caller's read keeps its entry.
func (c *TTLCache[V]) evict(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.m[key]; ok && e.expired(now) {
		delete(c.m, key)
	}
}

func (c *TTLCache[V]) Set(key string, v V) {
	now := c.now()
	var exp time.Time
	if c.ttl > 0 {
		exp = now.Add(c.ttl)
	}
	c.mu.Lock()
	c.m[key] = entry[V]{v: v, at: now, exp: exp}
	c.mu.Unlock()
}
