// Package cache provides read-through caching for validated geography paths.
// A cache hit must be indistinguishable from recomputation, so entries are
// keyed by the full validation input and invalidated whenever a country's
// canonical geography changes.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	id "gazetteer/pkg/domain"
)

// PathCache stores validated paths keyed by country and the supplied id
// tuple. Implementations are best-effort: a miss or an error only costs a
// recomputation.
type PathCache interface {
	// Get returns the cached path for the key, or ok=false on a miss.
	Get(ctx context.Context, key Key) (id.GeoPath, bool, error)

	// Set stores a validated path under the key.
	Set(ctx context.Context, key Key, path id.GeoPath) error

	// InvalidateCountry drops every entry for a country. Called when any of
	// the country's units or its descriptor changes.
	InvalidateCountry(ctx context.Context, country id.CountryCode) error
}

// Key identifies one validation input: the country plus the ordered unit ids
// the caller supplied.
type Key struct {
	Country id.CountryCode
	IDs     []id.UnitID
}

func (k Key) String() string {
	parts := make([]string, 0, len(k.IDs)+1)
	parts = append(parts, k.Country.String())
	for _, unitID := range k.IDs {
		parts = append(parts, unitID.String())
	}
	return strings.Join(parts, ":")
}

type memoryEntry struct {
	path      id.GeoPath
	expiresAt time.Time
}

// InMemoryPathCache is a TTL map cache for tests and single-node deployments.
type InMemoryPathCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryPathCache(ttl time.Duration) *InMemoryPathCache {
	return &InMemoryPathCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryPathCache) Get(_ context.Context, key Key) (id.GeoPath, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key.String()]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return id.GeoPath{}, false, nil
	}
	return entry.path, true, nil
}

func (c *InMemoryPathCache) Set(_ context.Context, key Key, path id.GeoPath) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = memoryEntry{path: path, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *InMemoryPathCache) InvalidateCountry(_ context.Context, country id.CountryCode) error {
	prefix := country.String() + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// NopPathCache disables caching. Used when no redis is configured and the
// deployment opts out of the in-process cache.
type NopPathCache struct{}

func (NopPathCache) Get(context.Context, Key) (id.GeoPath, bool, error) { return id.GeoPath{}, false, nil }
func (NopPathCache) Set(context.Context, Key, id.GeoPath) error        { return nil }
func (NopPathCache) InvalidateCountry(context.Context, id.CountryCode) error {
	return nil
}
