package resolve

import (
	"sync"
	"time"

	"lacquer/internal/badge"
)

type cacheKey struct {
	itemID    string
	badgeType badge.Type
}

type cacheEntry struct {
	data      badge.Data
	expiresAt time.Time
}

// Cache holds resolved badge data keyed by (item id, badge type) with a
// bounded time-to-live. Reads never touch the network; writes are idempotent
// so re-writing the same key under a race is harmless.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

// NewCache creates a cache with the given entry lifetime.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Get returns fresh cached data for the key, if any.
func (c *Cache) Get(itemID string, badgeType badge.Type) (badge.Data, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey{itemID: itemID, badgeType: badgeType}]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return badge.Data{}, false
	}
	return entry.data, true
}

// Put stores data for the key, replacing any previous entry.
func (c *Cache) Put(itemID string, badgeType badge.Type, data badge.Data) {
	expiresAt := c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[cacheKey{itemID: itemID, badgeType: badgeType}] = cacheEntry{data: data, expiresAt: expiresAt}
	c.mu.Unlock()
}

// PurgeExpired drops entries past their lifetime and reports how many remain.
func (c *Cache) PurgeExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	return len(c.entries)
}
