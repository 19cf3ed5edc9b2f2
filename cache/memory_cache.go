package cache

import (
	"sync"
	"time"

	"pos-insights/models"
)

type memoryEntry struct {
	modTime   time.Time
	dataset   *models.Dataset
	expiresAt time.Time
}

// MemoryCache keeps one dataset per path in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache builds a cache whose entries expire after ttl; zero keeps
// them until invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key Key) (*models.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.Path]
	if !ok || !e.modTime.Equal(key.ModTime) {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.dataset, true
}

func (c *MemoryCache) Put(key Key, ds *models.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{modTime: key.ModTime, dataset: ds}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key.Path] = e
}

func (c *MemoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == "" {
		c.entries = make(map[string]memoryEntry)
		return
	}
	delete(c.entries, path)
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
