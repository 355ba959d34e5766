package tokenstore

import "sync"

// SecretCache holds the signing secret in process memory.
type SecretCache interface {
	Get() ([]byte, bool)
	Set(secret []byte)
	Invalidate()
}

type memoryCache struct {
	mu     sync.RWMutex
	secret []byte
}

func NewMemoryCache() SecretCache {
	return &memoryCache{}
}

func (c *memoryCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secret, c.secret != nil
}

func (c *memoryCache) Set(secret []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = secret
}

func (c *memoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = nil
}
