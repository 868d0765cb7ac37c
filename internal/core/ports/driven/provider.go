package driven

import (
	"context"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// RemoteProvider is the hosting-provider capability the detector consumes.
// It is deliberately narrow so the detector and pipeline stay portable
// across providers.
type RemoteProvider interface {
	// Account returns the account whose repositories are listed. Used to
	// derive cache keys.
	Account() string

	// ListRepositories returns all repositories for the account, in
	// provider default order, deduplicated by full name. Transient
	// failures (rate limit, network) are returned as errors; the caller
	// decides whether cached data can stand in.
	ListRepositories(ctx context.Context) ([]domain.Repository, error)

	// CreateRepository creates a repository on the provider. Used to
	// provision per-category index repositories.
	CreateRepository(ctx context.Context, name, description string, private bool) (*domain.Repository, error)
}
