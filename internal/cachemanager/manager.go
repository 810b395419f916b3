// Package cachemanager caches derived values, such as rendered documentation,
// that are costly to rebuild and keyed by a string.
package cachemanager

import (
	"context"
	"time"
)

// Cache stores values of type V by string-like key.
type Cache[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}
