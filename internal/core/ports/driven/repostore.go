package driven

import (
	"context"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// RepositoryStore persists repository records. Records are created when a
// repository is first observed, mutated when re-classified or indexed, and
// never deleted — repositories missing from the remote listing are marked
// stale so index history survives.
type RepositoryStore interface {
	// Save stores or updates a repository record keyed by full name.
	Save(ctx context.Context, repo domain.Repository) error

	// Get retrieves a repository by full name.
	// Returns domain.ErrNotFound when no record exists.
	Get(ctx context.Context, fullName string) (*domain.Repository, error)

	// List returns all repository records, ordered by creation time.
	List(ctx context.Context) ([]domain.Repository, error)

	// ListByCategory returns indexed repositories in a category, ordered
	// by the time they were added to the index.
	ListByCategory(ctx context.Context, category string) ([]domain.Repository, error)

	// ListUnindexed returns repositories not yet written to any document.
	ListUnindexed(ctx context.Context) ([]domain.Repository, error)

	// MarkIndexed flags a repository as written into its category
	// document and records the category it landed in.
	MarkIndexed(ctx context.Context, fullName, category string) error

	// MarkStale flags every repository NOT named in observed as stale
	// and clears the flag on those that are. Returns the number of
	// records newly marked stale.
	MarkStale(ctx context.Context, observed []string) (int, error)
}
