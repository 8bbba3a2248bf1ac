package mailparse

import (
	"sync"
	"sync/atomic"
)

// DefaultCacheSize is the number of parse results kept by NewCache(0)
const DefaultCacheSize = 100

// Cache is a bounded memo of parse results keyed by exact input text.
// Eviction is by insertion order: reading an entry never refreshes it.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]V
	order    []string

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time view of cache usage
type CacheStats struct {
	Entries  int   `json:"entries"`
	Capacity int   `json:"capacity"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
}

// NewCache creates a cache holding at most capacity entries
func NewCache[V any](capacity int) *Cache[V] {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	return &Cache[V]{
		capacity: capacity,
		entries:  make(map[string]V, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get returns the cached value for key
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	v, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// PutIfAbsent stores v under key unless a value is already present, and
// returns whichever value ends up cached. The oldest entry is evicted first
// when the cache is full.
func (c *Cache[V]) PutIfAbsent(key string, v V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		return existing
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = v
	c.order = append(c.order, key)
	return v
}

// Len returns the number of cached entries
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns current usage counters
func (c *Cache[V]) Stats() CacheStats {
	return CacheStats{
		Entries:  c.Len(),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
