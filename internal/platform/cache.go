package platform

import (
	"sync"
)

// Cache is an in-memory object cache keyed by (platform base URL, resource key).
// It is passed by reference into every component that needs it; there is no
// package-level registry. Callers read optimistically and call Invalidate when
// the server answers NotFound for a cached key.
type Cache struct {
	baseURL string

	mu      sync.RWMutex
	entries map[string]interface{}
}

// NewCache creates an empty cache bound to one platform instance.
func NewCache(baseURL string) *Cache {
	return &Cache{
		baseURL: baseURL,
		entries: make(map[string]interface{}),
	}
}

func (c *Cache) cacheKey(key string) string {
	return c.baseURL + "#" + key
}

// Get returns the cached object for key, if present.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.entries[c.cacheKey(key)]
	return obj, ok
}

// Put stores an object under key, replacing any previous entry.
func (c *Cache) Put(key string, obj interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.cacheKey(key)] = obj
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.cacheKey(key))
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
