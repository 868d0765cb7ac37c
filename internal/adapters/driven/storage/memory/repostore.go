package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// Ensure RepositoryStore implements the interface.
var _ driven.RepositoryStore = (*RepositoryStore)(nil)

// RepositoryStore is an in-memory implementation of driven.RepositoryStore.
type RepositoryStore struct {
	mu    sync.RWMutex
	repos map[string]domain.Repository

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewRepositoryStore creates a new in-memory repository store.
func NewRepositoryStore() *RepositoryStore {
	return &RepositoryStore{
		repos: make(map[string]domain.Repository),
		Now:   time.Now,
	}
}

// Save stores or updates a repository record keyed by full name.
func (s *RepositoryStore) Save(_ context.Context, repo domain.Repository) error {
	if err := repo.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.repos[repo.FullName] = repo
	return nil
}

// Get retrieves a repository by full name.
func (s *RepositoryStore) Get(_ context.Context, fullName string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repos[fullName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repo, nil
}

// List returns all repository records, ordered by creation time.
func (s *RepositoryStore) List(_ context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Repository, 0, len(s.repos))
	for _, repo := range s.repos {
		out = append(out, repo)
	}
	sortByCreation(out)
	return out, nil
}

// ListByCategory returns indexed repositories in a category, ordered by the
// time they were added to the index.
func (s *RepositoryStore) ListByCategory(_ context.Context, category string) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Repository
	for _, repo := range s.repos {
		if repo.Category == category && repo.Indexed {
			out = append(out, repo)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IndexedAt.Equal(out[j].IndexedAt) {
			return out[i].IndexedAt.Before(out[j].IndexedAt)
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

// ListUnindexed returns repositories not yet written to any document.
func (s *RepositoryStore) ListUnindexed(_ context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Repository
	for _, repo := range s.repos {
		if !repo.Indexed {
			out = append(out, repo)
		}
	}
	sortByCreation(out)
	return out, nil
}

// MarkIndexed flags a repository as written into its category document.
func (s *RepositoryStore) MarkIndexed(_ context.Context, fullName, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, ok := s.repos[fullName]
	if !ok {
		return domain.ErrNotFound
	}
	repo.Category = category
	if !repo.Indexed {
		repo.Indexed = true
		repo.IndexedAt = s.Now()
	}
	s.repos[fullName] = repo
	return nil
}

// MarkStale flags every repository not named in observed as stale and
// clears the flag on those that are.
func (s *RepositoryStore) MarkStale(_ context.Context, observed []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(observed))
	for _, name := range observed {
		seen[name] = true
	}

	marked := 0
	for name, repo := range s.repos {
		if seen[name] {
			repo.Stale = false
		} else if !repo.Stale {
			repo.Stale = true
			marked++
		}
		s.repos[name] = repo
	}
	return marked, nil
}

func sortByCreation(repos []domain.Repository) {
	sort.Slice(repos, func(i, j int) bool {
		if !repos[i].CreatedAt.Equal(repos[j].CreatedAt) {
			return repos[i].CreatedAt.Before(repos[j].CreatedAt)
		}
		return repos[i].FullName < repos[j].FullName
	})
}
