// Package cache implements the coordinator's bounded most-recently-used
// result cache.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Capacity is the fixed cache size C.
const Capacity = 4

// Cache is a bounded key -> value mapping with least-recently-used eviction.
// All operations are safe for concurrent use.
type Cache struct {
	inner *lru.Cache[string, string]
}

// New builds an empty cache of the fixed capacity.
func New() *Cache {
	inner, err := lru.New[string, string](Capacity)
	if err != nil {
		// Capacity is a positive compile-time constant; New only errors on
		// size <= 0.
		panic(err)
	}
	return &Cache{inner: inner}
}

// Get returns the cached value for key and promotes it to most-recent.
func (c *Cache) Get(key string) (value string, ok bool) {
	return c.inner.Get(key)
}

// Contains reports whether key is cached without affecting recency.
func (c *Cache) Contains(key string) bool {
	return c.inner.Contains(key)
}

// Put installs value for key, marking it most-recent. If the cache is at
// capacity, the least-recently-used entry is evicted.
func (c *Cache) Put(key, value string) {
	c.inner.Add(key, value)
}

// Remove drops key from the cache, if present.
func (c *Cache) Remove(key string) {
	c.inner.Remove(key)
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}
