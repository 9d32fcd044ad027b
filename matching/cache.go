package matching

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes match results by value.
type Cache interface {
	// GetOrCompute returns the cached result for key, calling compute to
	// populate it on a miss.
	GetOrCompute(key string, compute func() Result) Result
}

// NoopCache never caches.
type NoopCache struct{}

// GetOrCompute implements Cache.
func (NoopCache) GetOrCompute(_ string, compute func() Result) Result {
	return compute()
}

// MemoryCache is a concurrent read-through cache scoped to one resolution.
// Concurrent misses for the same key compute the result once.
type MemoryCache struct {
	values sync.Map // string -> Result
	group  singleflight.Group

	hits, misses atomic.Int64
	observe      func(hit bool)
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithObserver calls fn on every lookup with whether it was a hit.
func WithObserver(fn func(hit bool)) CacheOption {
	return func(c *MemoryCache) { c.observe = fn }
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache(opts ...CacheOption) *MemoryCache {
	c := &MemoryCache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute implements Cache.
func (c *MemoryCache) GetOrCompute(key string, compute func() Result) Result {
	if v, ok := c.values.Load(key); ok {
		c.record(true)
		return v.(Result)
	}
	c.record(false)

	v, _, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.values.Load(key); ok {
			return v, nil
		}
		res := compute()
		c.values.Store(key, res)
		return res, nil
	})
	return v.(Result)
}

func (c *MemoryCache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observe != nil {
		c.observe(hit)
	}
}

// Stats returns the number of hits and misses so far.
func (c *MemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached results.
func (c *MemoryCache) Len() int {
	n := 0
	c.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var (
	_ Cache = NoopCache{}
	_ Cache = (*MemoryCache)(nil)
)
