package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURLCache_GetHonoursExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewURLCache()
	c.now = func() time.Time { return now }

	c.Set("users/a/b.txt", "https://example.test/b", now.Add(time.Minute))

	url, ok := c.Get("users/a/b.txt")
	assert.True(t, ok)
	assert.Equal(t, "https://example.test/b", url)

	now = now.Add(time.Minute)
	_, ok = c.Get("users/a/b.txt")
	assert.False(t, ok)
}

func TestURLCache_PruneAndForget(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewURLCache()
	c.now = func() time.Time { return now }

	c.Set("old", "u1", now.Add(-time.Second))
	c.Set("fresh", "u2", now.Add(time.Hour))
	c.Set("gone", "u3", now.Add(time.Hour))

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 2, c.Len())

	c.Forget("gone")
	_, ok := c.Get("gone")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
