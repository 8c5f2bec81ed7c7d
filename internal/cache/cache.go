// Package cache provides a small in-memory TTL cache for lookup results.
// Entries expire lazily on read; a miss is always safe because the pipeline
// re-runs the full resolution chain from scratch.
package cache

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a concurrent-safe TTL cache with bounded capacity. The oldest
// entry is evicted when the cache is full.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      []string // insertion order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type entry struct {
	value     any
	createdAt time.Time
}

// Stats contains cache performance counters.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// New creates a Cache with the given capacity and TTL.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// SingleKey builds the cache key for a single-geocode lookup.
func SingleKey(geocode string) string {
	return "g/" + geocode
}

// BatchKey builds the canonical cache key for a batch: the sorted,
// de-duplicated geocode set.
func BatchKey(geocodes []string) string {
	uniq := make(map[string]struct{}, len(geocodes))
	for _, g := range geocodes {
		uniq[g] = struct{}{}
	}
	keys := make([]string, 0, len(uniq))
	for g := range uniq {
		keys = append(keys, g)
	}
	sort.Strings(keys)
	return "b/" + strings.Join(keys, ",")
}

// Get retrieves a cached value. Returns false on miss or expiration.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if time.Since(e.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Put stores a value, evicting the oldest entry if at capacity.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &entry{value: value, createdAt: time.Now()}
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &entry{value: value, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Delete removes an entry if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.removeFromOrder(key)
	}
}

// Stats returns current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	s := Stats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
	}
	if total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// removeFromOrder removes a key from the insertion-order slice.
// Caller must hold the mutex.
func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
