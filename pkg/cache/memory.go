package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryConfig sizes the in-process cache. Zero fields take defaults.
type MemoryConfig struct {
	MaxEntries int
	// Sweep is how often expired entries are dropped in bulk.
	Sweep time.Duration
	// TTL applies when Set is called with ttl <= 0.
	TTL time.Duration
}

func (c *MemoryConfig) fill() {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 1000
	}
	if c.Sweep <= 0 {
		c.Sweep = 5 * time.Minute
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
}

type entry struct {
	raw     []byte
	expires time.Time
	touched time.Time
}

// MemoryCache is a bounded in-process Service. When full, the entry read or
// written longest ago is evicted.
type MemoryCache struct {
	cfg MemoryConfig

	mu      sync.Mutex
	entries map[string]*entry

	stop     chan struct{}
	stopOnce sync.Once
}

var _ Service = (*MemoryCache)(nil)

func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	cfg.fill()
	mc := &MemoryCache{
		cfg:     cfg,
		entries: make(map[string]*entry, cfg.MaxEntries),
		stop:    make(chan struct{}),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	mc.put(key, raw, ttl)
	return nil
}

func (mc *MemoryCache) put(key string, raw []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = mc.cfg.TTL
	}
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.entries[key]; !ok && len(mc.entries) >= mc.cfg.MaxEntries {
		mc.evictOldest()
	}
	mc.entries[key] = &entry{raw: raw, expires: now.Add(ttl), touched: now}
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	now := time.Now()

	mc.mu.Lock()
	e, ok := mc.entries[key]
	if ok && now.After(e.expires) {
		delete(mc.entries, key)
		ok = false
	}
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e.touched = now
	raw := e.raw
	mc.mu.Unlock()

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

func (mc *MemoryCache) Ping(context.Context) error {
	select {
	case <-mc.stop:
		return fmt.Errorf("cache: closed")
	default:
		return nil
	}
}

// Len counts stored entries, including expired ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}

// evictOldest runs with mu held.
func (mc *MemoryCache) evictOldest() {
	var victim string
	var at time.Time
	for k, e := range mc.entries {
		if victim == "" || e.touched.Before(at) {
			victim, at = k, e.touched
		}
	}
	delete(mc.entries, victim)
}

func (mc *MemoryCache) sweep() {
	t := time.NewTicker(mc.cfg.Sweep)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case now := <-t.C:
			mc.mu.Lock()
			for k, e := range mc.entries {
				if now.After(e.expires) {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}

func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}
