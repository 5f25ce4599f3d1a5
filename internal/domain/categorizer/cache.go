package categorizer

import (
	"sync"
)

// CacheStats counts lookups served by a MemoryCache
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// MemoryCache memoizes fuzzy category resolutions keyed by the normalized
// raw category. Safe for concurrent use.
type MemoryCache struct {
	mu       sync.Mutex
	resolved map[string]string
	hits     int
	misses   int
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		resolved: make(map[string]string),
	}
}

// Get returns the category previously resolved for key
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	category, found := c.resolved[key]
	if found {
		c.hits++
	} else {
		c.misses++
	}
	return category, found
}

// Set remembers the category resolved for key
func (c *MemoryCache) Set(key string, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resolved[key] = category
}

// Clear forgets all resolutions and resets the counters
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resolved = make(map[string]string)
	c.hits, c.misses = 0, 0
}

// Size returns the number of cached resolutions
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.resolved)
}

// Stats returns the entry count and lookup counters
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{Entries: len(c.resolved), Hits: c.hits, Misses: c.misses}
}
