// Package memory provides in-memory implementations of the driven storage
// ports, used in service tests and anywhere durability is not required.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

type cacheEntry struct {
	payload   []byte
	fetchedAt time.Time
	ttl       time.Duration
}

// CacheStore is an in-memory implementation of driven.CacheStore.
// Now is replaceable so tests can control the clock.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]cacheEntry),
		Now:     time.Now,
	}
}

// Get returns the payload if an unexpired entry exists.
func (c *CacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.Now().Sub(e.fetchedAt) >= e.ttl {
		return nil, false, nil
	}
	return e.payload, true, nil
}

// GetStale returns the entry regardless of expiry.
func (c *CacheStore) GetStale(_ context.Context, key string) ([]byte, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, domain.ErrNotFound
	}
	return e.payload, e.fetchedAt, nil
}

// Put replaces any existing entry for key.
func (c *CacheStore) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		payload:   append([]byte(nil), payload...),
		fetchedAt: c.Now(),
		ttl:       ttl,
	}
	return nil
}

// PurgeExpired removes expired entries.
func (c *CacheStore) PurgeExpired(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for key, e := range c.entries {
		if c.Now().Sub(e.fetchedAt) >= e.ttl {
			delete(c.entries, key)
			purged++
		}
	}
	return purged, nil
}

// SetFetchedAt rewrites an entry's fetch time. Test helper for ageing
// entries without a fake clock.
func (c *CacheStore) SetFetchedAt(key string, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.fetchedAt = fetchedAt
		c.entries[key] = e
	}
}
