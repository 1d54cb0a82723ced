// ABOUTME: Thread-safe expiring key-value store with a fixed per-cache TTL.
// ABOUTME: Backs challenge sessions and pass tokens; sweeps expired entries in the background.

package ttlcache

import (
	"sync"
	"time"
)

// entry stores a value together with its expiry deadline.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe key-value store in which every entry lives for the
// TTL configured at construction. Expired entries are unreachable from Get
// immediately and are reclaimed by a background sweeper, so memory stays
// bounded even for keys nobody looks up again.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and sweep interval and starts the
// background sweeper.
func New[V any](ttl, sweepInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)
	return c
}

// Set inserts or overwrites the value for key. The TTL starts now.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetAndDelete atomically removes and returns the value for key. Concurrent
// callers racing on the same key see at most one success.
func (c *Cache[V]) GetAndDelete(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	delete(c.entries, key)
	return e.value, true
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// sweepLoop runs in a background goroutine, periodically removing expired entries.
func (c *Cache[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes all expired entries.
func (c *Cache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Close stops the background sweeper. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
