package cache

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Category tags a cache instance for scoped administrative clears.
type Category string

const (
	// CategoryGitLab covers caches holding Git hosting API responses.
	CategoryGitLab Category = "gitlab"
	// CategoryAPI covers generic API-response caches (issue tracker et al).
	CategoryAPI Category = "api"
	// CategoryClient covers the server-side representation of caches the
	// UI asks to have invalidated on its behalf.
	CategoryClient Category = "client"
)

// Clearable is the slice of cache behavior the manager needs: every cache
// instance, whatever its value type, can be cleared and introspected.
type Clearable interface {
	Clear()
	Stats() Stats
}

type managed struct {
	name     string
	category Category
	cache    Clearable
}

// Manager is the administrative facade over every cache instance in the
// process. It holds no business logic; it only enumerates, clears and
// reports. Instances are registered once at wiring time.
type Manager struct {
	mu     sync.RWMutex
	caches []managed
}

// NewManager creates an empty cache manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a named cache instance under a category. Registering the
// same name twice replaces the earlier instance.
func (m *Manager) Register(name string, category Category, c Clearable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.caches {
		if existing.name == name {
			m.caches[i] = managed{name: name, category: category, cache: c}
			return
		}
	}
	m.caches = append(m.caches, managed{name: name, category: category, cache: c})
}

// ClearAll clears every registered cache. Dropped data is gone for good;
// the next read per category forces a live fetch.
func (m *Manager) ClearAll() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.caches {
		entry.cache.Clear()
	}
	log.Info().Int("caches", len(m.caches)).Msg("All caches cleared")
	return len(m.caches)
}

// ClearCategory clears every cache registered under the given category and
// returns how many instances were cleared.
func (m *Manager) ClearCategory(category Category) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cleared := 0
	for _, entry := range m.caches {
		if entry.category == category {
			entry.cache.Clear()
			cleared++
		}
	}
	log.Info().Str("category", string(category)).Int("caches", cleared).Msg("Category caches cleared")
	return cleared
}

// Stats returns per-instance statistics keyed by cache name, with key lists
// sorted for stable output.
func (m *Manager) Stats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]Stats, len(m.caches))
	for _, entry := range m.caches {
		s := entry.cache.Stats()
		sort.Strings(s.Keys)
		stats[entry.name] = s
	}
	return stats
}
