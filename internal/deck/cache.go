package deck

import (
	"sync"
	"time"
)

// ResultCache is an in-memory TTL cache of search result pages keyed on
// the canonical query string. It lives for the session only; nothing is
// persisted.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
	stats   CacheStats
}

type cacheEntry struct {
	result    *SearchResult
	timestamp time.Time
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// NewResultCache creates a result cache.
// ttl: time-to-live for entries (0 disables caching entirely)
// maxSize: maximum number of entries (0 = unlimited)
func NewResultCache(ttl time.Duration, maxSize int) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get returns the cached page for a canonical query, or nil on miss or
// expiry.
func (c *ResultCache) Get(query string) *SearchResult {
	if c.ttl == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		c.stats.Misses++
		return nil
	}
	if time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, query)
		c.stats.Evictions++
		c.stats.Misses++
		return nil
	}

	c.stats.Hits++
	return entry.result
}

// Put stores a result page. When the cache is full, the oldest entry is
// evicted first.
func (c *ResultCache) Put(query string, result *SearchResult) {
	if c.ttl == 0 || result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[query]; !ok && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[query] = &cacheEntry{result: result, timestamp: time.Now()}
}

// Clear drops all entries, e.g. when the catalog is reloaded.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}

func (c *ResultCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}
