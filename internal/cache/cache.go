package cache

import (
	"sync"
	"time"
)

// pruneInterval is how many Sets happen between sweeps of expired entries.
const pruneInterval = 64

type entry struct {
	value  any
	stored time.Time
}

// Cache provides a simple in-memory cache with expiration.
// A Cache with a zero TTL stores nothing.
type Cache struct {
	data map[string]entry
	ttl  time.Duration
	sets int
	now  func() time.Time
	mu   sync.RWMutex
}

// NewCache creates a new cache with the specified TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns how long entries stay valid.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.data[key]
	if !exists || c.expired(e) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value in the cache
func (c *Cache) Set(key string, val any) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry{value: val, stored: c.now()}

	c.sets++
	if c.sets%pruneInterval == 0 {
		c.pruneLocked()
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache) pruneLocked() int {
	removed := 0
	for key, e := range c.data {
		if c.expired(e) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.stored) > c.ttl
}
