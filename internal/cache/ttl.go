// Package cache provides the in-process caching layer shared by every
// upstream-facing component: a generic TTL cache, a response cache with
// structured keys, and an administrative manager over all instances.
//
// Eviction is lazy: an expired entry is removed when it is next observed by
// Get, Len or Stats. There is no background sweeper and no size bound, so key
// cardinality must stay modest (pages x categories in practice). A bounded
// eviction policy would be a deliberate behavior change, not a drop-in fix.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/revdash/revdash/internal/metrics"
)

// Entry is a single cached value with its expiry bookkeeping.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TTL is a thread-safe key/value store with per-entry expiry.
// The zero value is not usable; construct with NewTTL.
type TTL[V any] struct {
	mu         sync.RWMutex
	items      map[string]Entry[V]
	defaultTTL time.Duration
	clock      func() time.Time
	hits       int64
	misses     int64
}

// Option configures a TTL cache.
type Option[V any] func(*TTL[V])

// WithClock replaces the time source, letting tests control expiry.
func WithClock[V any](clock func() time.Time) Option[V] {
	return func(c *TTL[V]) {
		c.clock = clock
	}
}

// NewTTL creates a TTL cache whose entries default to the given lifetime.
func NewTTL[V any](defaultTTL time.Duration, opts ...Option[V]) *TTL[V] {
	c := &TTL[V]{
		items:      make(map[string]Entry[V]),
		defaultTTL: defaultTTL,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores a value under key with the default TTL.
// An existing entry for the key is overwritten unconditionally.
func (c *TTL[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores a value under key with an explicit TTL.
func (c *TTL[V]) SetTTL(key string, value V, ttl time.Duration) {
	now := c.clock()
	c.mu.Lock()
	c.items[key] = Entry[V]{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
	metrics.RecordCacheOperation("set", "success")
}

// Get returns the value stored under key. A key that was never set and a key
// whose entry has expired are indistinguishable to the caller. An entry found
// expired is deleted on the spot so later enumeration does not count it.
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "miss")
		return zero, false
	}

	if c.clock().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry between the two lock acquisitions.
		if current, still := c.items[key]; still && current.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		atomic.AddInt64(&c.misses, 1)
		metrics.RecordCacheOperation("get", "expired")
		return zero, false
	}

	atomic.AddInt64(&c.hits, 1)
	metrics.RecordCacheOperation("get", "hit")
	return entry.Value, true
}

// GetEntry is Get plus the entry bookkeeping (creation and expiry times).
func (c *TTL[V]) GetEntry(key string) (Entry[V], bool) {
	value, ok := c.Get(key)
	if !ok {
		return Entry[V]{}, false
	}
	c.mu.RLock()
	entry := c.items[key]
	c.mu.RUnlock()
	entry.Value = value
	return entry, true
}

// Remove deletes the entry under key, expired or not.
func (c *TTL[V]) Remove(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	metrics.RecordCacheOperation("remove", "success")
}

// Clear drops every entry and resets the hit/miss counters.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Entry[V])
	c.mu.Unlock()
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	metrics.RecordCacheOperation("clear", "success")
}

// Len returns the number of live entries, sweeping expired ones first.
func (c *TTL[V]) Len() int {
	c.sweep()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats describes the observable state of a cache instance.
type Stats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   int64    `json:"hits"`
	Misses int64    `json:"misses"`
}

// Stats reports live entries only: the same expiry rule applied by Get is
// applied to every key before counting.
func (c *TTL[V]) Stats() Stats {
	c.sweep()

	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return Stats{
		Size:   len(c.items),
		Keys:   keys,
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

// sweep removes every expired entry in one pass.
func (c *TTL[V]) sweep() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.items {
		if now.After(entry.ExpiresAt) {
			delete(c.items, key)
		}
	}
}
