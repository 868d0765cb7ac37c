package driven

import (
	"context"
	"time"
)

// CacheStore is a persistent key-value store with expiry, holding remote
// query snapshots. Entries are replaced wholesale on refresh, never merged.
//
// Storage I/O failures are surfaced to the caller (wrapping
// domain.ErrStorage), never swallowed: the caller decides whether to fall
// back to a forced remote fetch.
type CacheStore interface {
	// Get returns the payload for key if an unexpired entry exists.
	// An entry whose age is >= its TTL is treated as absent.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// GetStale returns the entry for key regardless of expiry, with its
	// fetch time. Used as a degraded fallback when the remote provider
	// is unreachable. Returns domain.ErrNotFound when no entry exists.
	GetStale(ctx context.Context, key string) (payload []byte, fetchedAt time.Time, err error)

	// Put stores payload under key with the given TTL, atomically
	// replacing any existing entry. Concurrent readers never observe a
	// partial overwrite.
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// PurgeExpired removes expired entries and returns the count removed.
	PurgeExpired(ctx context.Context) (int, error)
}
