package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore_CreatesDatabaseAndMigrates(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, store.Path())
	require.NoError(t, store.Close())

	// Re-opening against the same directory re-runs migrations idempotently.
	again, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestCacheStore_PutAndGet(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	payload := []byte(`[{"FullName":"octo/alpha"}]`)
	require.NoError(t, cache.Put(ctx, "repo-list:octo", payload, time.Hour))

	got, ok, err := cache.Get(ctx, "repo-list:octo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestCacheStore_MissingKeyIsAbsent(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()

	_, ok, err := cache.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStore_ExpiredEntryIsAbsent(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	// Zero TTL: age >= TTL from the instant it is written.
	require.NoError(t, cache.Put(ctx, "k", []byte("v"), 0))

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheStore_GetStaleIgnoresExpiry(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("v"), 0))

	payload, fetchedAt, err := cache.GetStale(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), payload)
	assert.WithinDuration(t, time.Now(), fetchedAt, time.Minute)

	_, _, err = cache.GetStale(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCacheStore_PutReplacesWholesale(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("old"), time.Hour))
	require.NoError(t, cache.Put(ctx, "k", []byte("new"), time.Hour))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestCacheStore_PurgeExpired(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "dead", []byte("v"), 0))
	require.NoError(t, cache.Put(ctx, "live", []byte("v"), time.Hour))

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	// The purged entry is gone even for stale reads.
	_, _, err = cache.GetStale(ctx, "dead")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, ok, err := cache.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func storedRepo(fullName string, createdAt time.Time) domain.Repository {
	return domain.Repository{
		FullName:  fullName,
		Name:      fullName[len("octo/"):],
		URL:       "https://github.com/" + fullName,
		Category:  "tools",
		CreatedAt: createdAt,
	}
}

func TestRepositoryStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	repo := storedRepo("octo/alpha", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo.Description = "First tool"
	require.NoError(t, repos.Save(ctx, repo))

	got, err := repos.Get(ctx, "octo/alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, "First tool", got.Description)
	assert.Equal(t, "tools", got.Category)
	assert.True(t, got.CreatedAt.Equal(repo.CreatedAt))
	assert.False(t, got.Indexed)
	assert.True(t, got.IndexedAt.IsZero())
}

func TestRepositoryStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RepositoryStore().Get(context.Background(), "octo/ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositoryStore_SaveRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	err := store.RepositoryStore().Save(context.Background(), domain.Repository{FullName: "no-owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepositoryStore_SaveUpserts(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	repo := storedRepo("octo/alpha", time.Now().UTC())
	require.NoError(t, repos.Save(ctx, repo))

	repo.Description = "updated"
	require.NoError(t, repos.Save(ctx, repo))

	got, err := repos.Get(ctx, "octo/alpha")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Description)

	all, err := repos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepositoryStore_ListOrdersByCreation(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Save(ctx, storedRepo("octo/newer", base.Add(time.Hour))))
	require.NoError(t, repos.Save(ctx, storedRepo("octo/older", base)))

	all, err := repos.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "octo/older", all[0].FullName)
	assert.Equal(t, "octo/newer", all[1].FullName)
}

func TestRepositoryStore_MarkIndexed(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	require.NoError(t, repos.Save(ctx, storedRepo("octo/alpha", time.Now().UTC())))
	require.NoError(t, repos.MarkIndexed(ctx, "octo/alpha", "tools"))

	got, err := repos.Get(ctx, "octo/alpha")
	require.NoError(t, err)
	require.True(t, got.Indexed)
	firstIndexedAt := got.IndexedAt
	assert.False(t, firstIndexedAt.IsZero())

	// Marking again keeps the original indexed time.
	require.NoError(t, repos.MarkIndexed(ctx, "octo/alpha", "tools"))
	got, err = repos.Get(ctx, "octo/alpha")
	require.NoError(t, err)
	assert.True(t, got.IndexedAt.Equal(firstIndexedAt))

	assert.ErrorIs(t, repos.MarkIndexed(ctx, "octo/ghost", "tools"), domain.ErrNotFound)
}

func TestRepositoryStore_ListByCategoryAndUnindexed(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repos.Save(ctx, storedRepo("octo/alpha", now)))
	require.NoError(t, repos.Save(ctx, storedRepo("octo/beta", now.Add(time.Second))))

	other := storedRepo("octo/gamma", now)
	other.Category = "libs"
	require.NoError(t, repos.Save(ctx, other))

	unindexed, err := repos.ListUnindexed(ctx)
	require.NoError(t, err)
	assert.Len(t, unindexed, 3)

	require.NoError(t, repos.MarkIndexed(ctx, "octo/alpha", "tools"))

	indexed, err := repos.ListByCategory(ctx, "tools")
	require.NoError(t, err)
	require.Len(t, indexed, 1)
	assert.Equal(t, "octo/alpha", indexed[0].FullName)

	unindexed, err = repos.ListUnindexed(ctx)
	require.NoError(t, err)
	assert.Len(t, unindexed, 2)
}

func TestRepositoryStore_MarkStale(t *testing.T) {
	store := newTestStore(t)
	repos := store.RepositoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repos.Save(ctx, storedRepo("octo/alpha", now)))
	require.NoError(t, repos.Save(ctx, storedRepo("octo/beta", now)))

	staled, err := repos.MarkStale(ctx, []string{"octo/alpha"})
	require.NoError(t, err)
	assert.Equal(t, 1, staled)

	beta, err := repos.Get(ctx, "octo/beta")
	require.NoError(t, err)
	assert.True(t, beta.Stale)

	// beta reappears: its flag clears, nothing else is newly staled.
	staled, err = repos.MarkStale(ctx, []string{"octo/alpha", "octo/beta"})
	require.NoError(t, err)
	assert.Zero(t, staled)

	beta, err = repos.Get(ctx, "octo/beta")
	require.NoError(t, err)
	assert.False(t, beta.Stale)

	// An empty observation marks everything stale.
	staled, err = repos.MarkStale(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, staled)
}

func TestFileStateStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	states := store.FileStateStore()
	ctx := context.Background()

	hashes, err := states.CommittedHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, states.SaveCommittedHash(ctx, "/idx/README.md", "aaa111"))
	require.NoError(t, states.SaveCommittedHash(ctx, "/idx/libs/README.md", "bbb222"))

	hashes, err = states.CommittedHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/idx/README.md":      "aaa111",
		"/idx/libs/README.md": "bbb222",
	}, hashes)
}

func TestFileStateStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	states := store.FileStateStore()
	ctx := context.Background()

	require.NoError(t, states.SaveCommittedHash(ctx, "/idx/README.md", "old"))
	require.NoError(t, states.SaveCommittedHash(ctx, "/idx/README.md", "new"))

	hashes, err := states.CommittedHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/idx/README.md": "new"}, hashes)
}
