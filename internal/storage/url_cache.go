package storage

import (
	"sync"
	"time"
)

type urlEntry struct {
	url       string
	expiresAt time.Time
}

// URLCache remembers presigned links per object key until shortly before they expire.
type URLCache struct {
	mu      sync.RWMutex
	entries map[string]urlEntry
	now     func() time.Time
}

func NewURLCache() *URLCache {
	return &URLCache{
		entries: make(map[string]urlEntry),
		now:     time.Now,
	}
}

// Get returns the cached link for key if it is still valid.
func (c *URLCache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if found && c.now().Before(entry.expiresAt) {
		return entry.url, true
	}
	return "", false
}

func (c *URLCache) Set(key, url string, expiresAt time.Time) {
	c.mu.Lock()
	c.entries[key] = urlEntry{url: url, expiresAt: expiresAt}
	c.mu.Unlock()
}

func (c *URLCache) Forget(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Prune drops expired entries and reports how many were removed.
func (c *URLCache) Prune() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *URLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
