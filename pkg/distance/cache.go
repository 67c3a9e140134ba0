package distance

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// pairKey is the canonicalised (min(i,j), max(i,j)) cache key (§4.A).
type pairKey struct {
	lo, hi int
}

// Cache is a bounded associative pair->distance cache with approximate
// LRU eviction, wrapping hashicorp/golang-lru/v2 (see SPEC_FULL.md's
// DOMAIN STACK table: the teacher keeps no such cache at all, storing
// raw vectors directly on HNSWNode, so this is new plumbing grounded on
// the canonical Go bounded-cache library rather than on teacher code).
// It never stores NaN (§4.A); callers validate before Put.
type Cache struct {
	inner *lru.Cache[pairKey, float32]
}

// NewCache builds a Cache bounded to maxEntries.
func NewCache(maxEntries int) (*Cache, error) {
	inner, err := lru.New[pairKey, float32](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

func canon(i, j int) pairKey {
	if i < j {
		return pairKey{lo: i, hi: j}
	}
	return pairKey{lo: j, hi: i}
}

// Get returns the cached distance between i and j, if present.
func (c *Cache) Get(i, j int) (float32, bool) {
	return c.inner.Get(canon(i, j))
}

// Put stores the distance between i and j.
func (c *Cache) Put(i, j int, d float32) {
	c.inner.Add(canon(i, j), d)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.inner.Len() }
