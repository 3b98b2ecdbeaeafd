/*
cache.go - Explicit caller-owned expiring cache

PURPOSE:

	Priority queues and conflict assessments are cheap but not free to
	recompute on every page load. The source system grew ad hoc module-level
	caches with fixed TTLs scattered across call sites; here the cache is an
	explicit value the CALLER constructs, owns, and passes. The engine itself
	never creates one and stays stateless between calls.

CLOCK:

	Expiry uses an injected clock function so tests control time. The engine's
	purity rule (no internal wall-clock reads) applies to computation, not to
	this caller-owned utility.

USAGE:

	cache := schedule.NewCache[string, []schedule.ScoredRequest](5*time.Minute, time.Now)
	if queue, ok := cache.Get("senior"); ok { ... }
	cache.Put("senior", queue)
*/
package schedule

import (
	"sync"
	"time"
)

// Cache is a TTL map safe for concurrent use. The zero value is not usable;
// construct with NewCache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCache builds a cache with the given TTL and clock. A nil clock uses
// time.Now.
func NewCache[K comparable, V any](ttl time.Duration, now func() time.Time) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]cacheEntry[V]),
	}
}

// Get returns the cached value if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Put stores a value with the cache's TTL.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate removes one key; used when the underlying request set changes.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]cacheEntry[V])
}
