package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// fileStateStore implements driven.FileStateStore.
type fileStateStore struct {
	store *Store
}

var _ driven.FileStateStore = (*fileStateStore)(nil)

// CommittedHashes returns the persisted committed hash per document path.
func (f *fileStateStore) CommittedHashes(ctx context.Context) (map[string]string, error) {
	rows, err := f.store.db.QueryContext(ctx, `
		SELECT path, committed_hash FROM file_states
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: reading file states: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("%w: scanning file state: %v", domain.ErrStorage, err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading file states: %v", domain.ErrStorage, err)
	}
	return hashes, nil
}

// SaveCommittedHash upserts the committed hash for path.
func (f *fileStateStore) SaveCommittedHash(ctx context.Context, path, hash string) error {
	_, err := f.store.db.ExecContext(ctx, `
		INSERT INTO file_states (path, committed_hash, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			committed_hash = excluded.committed_hash,
			updated_at = excluded.updated_at
	`, path, hash, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving file state for %s: %v", domain.ErrStorage, path, err)
	}
	return nil
}
