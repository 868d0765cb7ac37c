package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Get returns the payload for key if an unexpired entry exists. Expiry is
// evaluated at read time: age >= TTL is absent.
func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, fetchedAt, ttl, err := c.fetch(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Since(fetchedAt) >= ttl {
		return nil, false, nil
	}
	return payload, true, nil
}

// GetStale returns the entry regardless of expiry, with its fetch time.
func (c *cacheStore) GetStale(ctx context.Context, key string) ([]byte, time.Time, error) {
	payload, fetchedAt, _, err := c.fetch(ctx, key)
	if err != nil {
		return nil, time.Time{}, err
	}
	return payload, fetchedAt, nil
}

// Put replaces any existing entry for key atomically: the upsert is a
// single statement, so concurrent readers see the old or the new entry,
// never a mix.
func (c *cacheStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, fetched_at, ttl_seconds)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			ttl_seconds = excluded.ttl_seconds
	`, key, payload, time.Now().UTC().Format(time.RFC3339Nano), int64(ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("%w: putting cache entry %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// PurgeExpired removes entries whose age exceeds their TTL.
func (c *cacheStore) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx, `
		DELETE FROM cache_entries
		WHERE datetime(fetched_at, '+' || ttl_seconds || ' seconds') <= datetime('now')
	`)
	if err != nil {
		return 0, fmt.Errorf("%w: purging cache: %v", domain.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: purging cache: %v", domain.ErrStorage, err)
	}
	return int(n), nil
}

func (c *cacheStore) fetch(ctx context.Context, key string) ([]byte, time.Time, time.Duration, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at, ttl_seconds FROM cache_entries WHERE key = ?
	`, key)

	var payload []byte
	var fetchedAtRaw string
	var ttlSeconds int64
	if err := row.Scan(&payload, &fetchedAtRaw, &ttlSeconds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, 0, domain.ErrNotFound
		}
		return nil, time.Time{}, 0, fmt.Errorf("%w: reading cache entry %s: %v", domain.ErrStorage, key, err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedAtRaw)
	if err != nil {
		return nil, time.Time{}, 0, fmt.Errorf("%w: cache entry %s has bad timestamp: %v", domain.ErrStorage, key, err)
	}
	return payload, fetchedAt, time.Duration(ttlSeconds) * time.Second, nil
}
