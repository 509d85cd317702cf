package usecases

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/posterforge/posterforge/internal/core/domain"
)

// FeatureCache keeps fetched map data in memory so a rerender with a new
// theme can skip geocoding and the upstream feature fetches entirely.
// Entries expire after a TTL and the cache holds at most maxEntries sets.
type FeatureCache struct {
	mu         sync.Mutex
	entries    map[string]featureEntry
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

type featureEntry struct {
	set        *domain.FeatureSet
	insertedAt time.Time
}

// NewFeatureCache creates a cache with the given TTL and capacity.
func NewFeatureCache(ttl time.Duration, maxEntries int) *FeatureCache {
	return &FeatureCache{
		entries:    make(map[string]featureEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// FeatureCacheKey identifies a fetched feature set. Lookups are
// case-insensitive on city and country.
func FeatureCacheKey(city, country string, distance int) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(city)),
		strings.ToLower(strings.TrimSpace(country)),
		distance)
}

// Get returns the cached feature set for key, or nil when absent or
// expired. Expired entries are removed on access.
func (c *FeatureCache) Get(key string) *domain.FeatureSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return nil
	}
	return e.set
}

// Put stores a feature set. At capacity it first drops expired entries,
// then the oldest remaining entry.
func (c *FeatureCache) Put(key string, set *domain.FeatureSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = featureEntry{set: set, insertedAt: c.now()}
}

// Len reports the number of entries, expired ones included.
func (c *FeatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *FeatureCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]featureEntry)
}

func (c *FeatureCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
