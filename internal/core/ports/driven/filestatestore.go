package driven

import "context"

// FileStateStore persists the last committed content hash of each watched
// document. Baselines restored from it let the watcher detect edits made
// while the engine was not running.
type FileStateStore interface {
	// CommittedHashes returns the persisted hash per document path.
	CommittedHashes(ctx context.Context) (map[string]string, error)

	// SaveCommittedHash stores the hash for path, replacing any record.
	SaveCommittedHash(ctx context.Context, path, hash string) error
}
