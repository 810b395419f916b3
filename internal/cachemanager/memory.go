package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/afb/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Memory is a Cache backed by go-cache.
type Memory[K ~string, V any] struct {
	name  string
	cache *gocache.Cache
}

// NewMemory creates an in-memory cache. name only appears in log lines.
func NewMemory[K ~string, V any](name string, defaultExpiration, cleanupInterval time.Duration) *Memory[K, V] {
	return &Memory[K, V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get returns the value under key. An entry holding another type counts as a miss.
func (c *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V

	raw, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "cached value has unexpected type", "cache", c.name, "key", string(key))
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.name, "key", string(key))
	return v, true
}

// Set stores value under key. A zero ttl uses the default expiration.
func (c *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(string(key), value, ttl)
}

func (c *Memory[K, V]) Delete(_ context.Context, keys ...K) {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
}

func (c *Memory[K, V]) Flush(_ context.Context) {
	c.cache.Flush()
}

// Len reports the number of entries, expired ones included until cleanup.
func (c *Memory[K, V]) Len() int {
	return c.cache.ItemCount()
}
