package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Key derives a deterministic cache key from an endpoint name and its
// parameters. Parameters are serialized in sorted key order, so the same
// logical request always produces the same key regardless of how the caller
// assembled the map. The function is pure; key equality is what makes
// cache hits (and the tests asserting cache reuse) work.
func Key(endpoint string, params map[string]any) string {
	if len(params) == 0 {
		return endpoint
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", params[name])
	}
	return b.String()
}

// Response is an API cache entry: the decoded payload plus the upstream
// response headers worth keeping (pagination counters, rate-limit state).
// CreatedAt is filled by Get from the entry bookkeeping, so callers can
// report how stale a served payload is.
type Response[V any] struct {
	Data      V
	Headers   map[string]string
	CreatedAt time.Time
}

// API caches upstream API responses together with selected response headers.
// It layers over TTL; keys are produced by Key or composed by the caller.
type API[V any] struct {
	ttl *TTL[Response[V]]
}

// NewAPI creates an API response cache with the given default entry lifetime.
func NewAPI[V any](defaultTTL time.Duration, opts ...Option[Response[V]]) *API[V] {
	return &API[V]{ttl: NewTTL(defaultTTL, opts...)}
}

// Set stores a response under key with the default TTL.
func (c *API[V]) Set(key string, data V, headers map[string]string) {
	c.ttl.Set(key, Response[V]{Data: data, Headers: headers})
}

// SetTTL stores a response under key with an explicit TTL.
func (c *API[V]) SetTTL(key string, data V, headers map[string]string, ttl time.Duration) {
	c.ttl.SetTTL(key, Response[V]{Data: data, Headers: headers}, ttl)
}

// Get returns the cached response for key, if present and not expired,
// stamped with the time the entry was stored.
func (c *API[V]) Get(key string) (Response[V], bool) {
	entry, ok := c.ttl.GetEntry(key)
	if !ok {
		return Response[V]{}, false
	}
	resp := entry.Value
	resp.CreatedAt = entry.CreatedAt
	return resp, true
}

// Remove deletes the entry under key.
func (c *API[V]) Remove(key string) {
	c.ttl.Remove(key)
}

// Clear drops every cached response.
func (c *API[V]) Clear() {
	c.ttl.Clear()
}

// Stats reports the live state of the cache.
func (c *API[V]) Stats() Stats {
	return c.ttl.Stats()
}
