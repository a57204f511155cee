// Package cache stores JSON-encoded values in process, in Redis, or in both.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is a JSON value store with per-entry expiry. Every backend
// decodes into typed destinations the same way.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
	io.Closer
}

// GetTyped reads key into a new T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var v T
	err := c.Get(ctx, key, &v)
	return v, err
}

// Key joins kind and parts with ':'. Strings are lower-cased so that "ETH"
// and "eth" share an entry.
func Key(kind string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		if s, ok := p.(string); ok {
			b.WriteString(strings.ToLower(s))
		} else {
			fmt.Fprint(&b, p)
		}
	}
	return b.String()
}
