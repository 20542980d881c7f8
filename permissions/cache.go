package permissions

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// CacheKey identifies one cached grant set.
type CacheKey struct {
	Subject uuid.UUID
	Tenant  uuid.UUID
}

// String returns a string representation of the cache key
func (k CacheKey) String() string {
	return k.Subject.String() + ":" + k.Tenant.String()
}

// cacheEntry is a single cached grant set with its insertion time.
type cacheEntry struct {
	key        CacheKey
	grants     GrantSet
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

// Cache is an in-memory LRU cache with a fixed TTL for permission grant
// sets. Entries are immutable until their TTL expires: there is no
// event-driven invalidation, and bounded staleness up to the TTL is an
// accepted, documented tradeoff. Concurrent fills for the same key may each
// call the authority and overwrite one another; last write wins.
//
// The clock is injected rather than read ambiently so TTL behavior is
// testable and the cache can be passed into the pipeline as an explicit
// value.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	clock   clock.Clock
	hits    uint64
	misses  uint64
}

// NewCache creates a Cache with the given capacity and TTL. A nil clock
// falls back to the wall clock.
func NewCache(maxSize int, ttl time.Duration, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		clock:   clk,
	}
}

// Get returns the cached grant set for the key, or false on a miss. An entry
// past its TTL is never trusted: it counts as a miss and is removed.
func (c *Cache) Get(key CacheKey) (GrantSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()
	entry, exists := c.entries[keyStr]

	if !exists || c.expired(entry) {
		c.misses++
		if exists {
			c.removeEntry(keyStr)
		}
		return nil, false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.grants, true
}

// Set stores a grant set under the fixed TTL, evicting the least recently
// used entry when full.
func (c *Cache) Set(key CacheKey, grants GrantSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()

	if entry, exists := c.entries[keyStr]; exists {
		entry.grants = grants
		entry.insertedAt = c.clock.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		key:        key,
		grants:     grants,
		insertedAt: c.clock.Now(),
	}
	entry.element = c.lruList.PushFront(keyStr)
	c.entries[keyStr] = entry
}

// Invalidate removes a specific entry. The pipeline itself never calls this;
// it exists as the invalidation hook for tests and operational tooling.
func (c *Cache) Invalidate(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeEntry(key.String())
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: c.calculateHitRate(),
	}
}

func (c *Cache) calculateHitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// CleanupExpired removes all expired entries and reports how many were
// removed. Should be called periodically in a background goroutine.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiredKeys := make([]string, 0)
	for keyStr, entry := range c.entries {
		if c.expired(entry) {
			expiredKeys = append(expiredKeys, keyStr)
		}
	}
	for _, keyStr := range expiredKeys {
		c.removeEntry(keyStr)
	}

	return len(expiredKeys)
}

// StartCleanupWorker periodically removes expired entries until stopCh
// closes.
func (c *Cache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := c.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// expired must be called with the lock held.
func (c *Cache) expired(entry *cacheEntry) bool {
	return c.clock.Now().Sub(entry.insertedAt) > c.ttl
}

// removeEntry must be called with the lock held.
func (c *Cache) removeEntry(keyStr string) {
	if entry, exists := c.entries[keyStr]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, keyStr)
	}
}

// evictLRU must be called with the lock held.
func (c *Cache) evictLRU() {
	backElement := c.lruList.Back()
	if backElement != nil {
		keyStr := backElement.Value.(string)
		c.lruList.Remove(backElement)
		delete(c.entries, keyStr)
	}
}
