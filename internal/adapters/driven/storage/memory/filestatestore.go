package memory

import (
	"context"
	"sync"

	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// Ensure FileStateStore implements the interface.
var _ driven.FileStateStore = (*FileStateStore)(nil)

// FileStateStore is an in-memory implementation of driven.FileStateStore.
type FileStateStore struct {
	mu     sync.RWMutex
	hashes map[string]string
}

// NewFileStateStore creates a new in-memory file state store.
func NewFileStateStore() *FileStateStore {
	return &FileStateStore{
		hashes: make(map[string]string),
	}
}

// CommittedHashes returns a copy of the stored hash per path.
func (s *FileStateStore) CommittedHashes(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.hashes))
	for path, hash := range s.hashes {
		out[path] = hash
	}
	return out, nil
}

// SaveCommittedHash stores the hash for path, replacing any record.
func (s *FileStateStore) SaveCommittedHash(_ context.Context, path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[path] = hash
	return nil
}
