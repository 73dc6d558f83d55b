package prefetch

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Cache is an in-memory byte cache with per-entry expiry, keyed by URL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// how often expired entries are swept out
const cleanupPeriod = 10 * time.Second

// NewCache returns a cache whose sweep goroutine runs until ctx is canceled.
func NewCache(ctx context.Context, ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
	go func() {
		ticker := time.NewTicker(cleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
	return c
}

// Get returns the cached bytes for url if present and not expired.
func (c *Cache) Get(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.data, true
}

// Set stores data under url for the cache TTL.
func (c *Cache) Set(url string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = entry{data: data, expires: time.Now().Add(c.ttl)}
}

// Has reports whether url is cached and fresh.
func (c *Cache) Has(url string) bool {
	_, ok := c.Get(url)
	return ok
}

// Len returns the number of entries, including not yet swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, url)
		}
	}
}
