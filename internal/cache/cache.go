// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides time-bounded memoization of expensive calls keyed
// by call signature. Lookups of distinct keys never block each other;
// concurrent lookups of the same key collapse to a single underlying call.
package cache

import (
	"sync"
	"time"
)

// entry holds one cached computation. ready is closed once value/err are
// populated, so concurrent callers of the same key wait instead of
// recomputing.
type entry struct {
	ready     chan struct{}
	value     any
	err       error
	expiresAt time.Time
}

// Cache memoizes call results until their TTL expires. Failed computations
// are never stored: the next call with the same key retries. Expired
// entries are noticed and dropped lazily on the next lookup.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	// now is swappable in tests.
	now func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// GetOrCompute returns the live cached value for key, or invokes fn, stores
// its result for ttl, and returns it. If fn fails, the error is returned
// and nothing is cached. When another caller is already computing the same
// key, this call waits for that computation instead of issuing its own.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, fn func() (any, error)) (any, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if ok {
			select {
			case <-e.ready:
				if c.now().Before(e.expiresAt) {
					c.mu.Unlock()
					return e.value, e.err
				}
				// Expired: drop and recompute below.
				delete(c.entries, key)
				ok = false
			default:
				// In flight: wait for the computing caller.
				c.mu.Unlock()
				<-e.ready
				if e.err == nil {
					return e.value, nil
				}
				// The computing caller failed; retry from scratch.
				continue
			}
		}
		if !ok {
			e = &entry{ready: make(chan struct{})}
			c.entries[key] = e
			c.mu.Unlock()

			e.value, e.err = fn()
			e.expiresAt = c.now().Add(ttl)
			close(e.ready)

			if e.err != nil {
				c.mu.Lock()
				// Only remove our own failed entry; a concurrent
				// recompute may have replaced it already.
				if c.entries[key] == e {
					delete(c.entries, key)
				}
				c.mu.Unlock()
			}
			return e.value, e.err
		}
	}
}

// Bust removes key so the next lookup recomputes regardless of TTL.
func (c *Cache) Bust(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
