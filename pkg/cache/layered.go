package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// LayeredCache fronts a shared cache with a small in-process one. Writes go
// through to both; reads fill the local layer on a shared hit.
type LayeredCache struct {
	local    *MemoryCache
	shared   Service
	localTTL time.Duration
}

var _ Service = (*LayeredCache)(nil)

// NewLayeredCache keeps at most localSize entries locally, each for at most
// localTTL.
func NewLayeredCache(shared Service, localSize int, localTTL time.Duration) *LayeredCache {
	if localTTL <= 0 {
		localTTL = time.Minute
	}
	return &LayeredCache{
		local:    NewMemoryCache(MemoryConfig{MaxEntries: localSize, TTL: localTTL}),
		shared:   shared,
		localTTL: localTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.shared.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	local := lc.localTTL
	if ttl > 0 && ttl < local {
		local = ttl
	}
	return lc.local.Set(ctx, key, value, local)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.local.Get(ctx, key, dest) == nil {
		return nil
	}
	var raw json.RawMessage
	if err := lc.shared.Get(ctx, key, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}
	lc.local.put(key, raw, lc.localTTL)
	return nil
}

// Ping checks the shared layer; the local one cannot fail.
func (lc *LayeredCache) Ping(ctx context.Context) error {
	return lc.shared.Ping(ctx)
}

func (lc *LayeredCache) Close() error {
	return errors.Join(lc.local.Close(), lc.shared.Close())
}
