package cachemanager

import (
	"context"
	"time"
)

// ReadThrough fills a Cache from a loader on miss.
type ReadThrough[K ~string, V any, I any] struct {
	cache Cache[K, V]
	load  func(ctx context.Context, input I) (V, error)
	skip  bool
}

// NewReadThrough wraps cache. With skip set every Get calls load.
func NewReadThrough[K ~string, V any, I any](
	cache Cache[K, V],
	load func(ctx context.Context, input I) (V, error),
	skip bool,
) *ReadThrough[K, V, I] {
	return &ReadThrough[K, V, I]{cache: cache, load: load, skip: skip}
}

// Get returns the cached value for key, loading and storing it from input on
// miss. Errors are not cached.
func (r *ReadThrough[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skip {
		return r.load(ctx, input)
	}
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}

	v, err := r.load(ctx, input)
	if err != nil {
		return v, err
	}
	r.cache.Set(ctx, key, v, ttl)
	return v, nil
}

// Invalidate drops every cached value.
func (r *ReadThrough[K, V, I]) Invalidate(ctx context.Context) {
	r.cache.Flush(ctx)
}
