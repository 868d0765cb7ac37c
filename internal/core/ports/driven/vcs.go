package driven

import (
	"context"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// VersionControl stages, commits and pushes document changes in a working
// tree. Implementations resolve the default branch dynamically rather than
// assuming a fixed name, stage only the paths they are given, and never
// create empty commits or force-push.
//
// Commit and Push are split so the orchestrator can hold its working-tree
// lock across the local commit but release it before the network push.
type VersionControl interface {
	// Commit stages exactly paths and commits with message. Returns a
	// no-op result when nothing is staged afterwards — empty commits are
	// never created. Commit failures wrap domain.ErrCommitFailed and are
	// not retried.
	Commit(ctx context.Context, paths []string, message string) (domain.CommitResult, error)

	// Push pushes the branch to origin. Transient failures are retried
	// with bounded exponential backoff; a diverged remote wraps
	// domain.ErrPushRejected and is never force-pushed over.
	Push(ctx context.Context, branch string) error

	// CommitAndPush composes Commit and Push for callers without their
	// own locking concerns.
	CommitAndPush(ctx context.Context, paths []string, message string) (domain.CommitResult, error)

	// DefaultBranch resolves (and caches for the session) the branch
	// pushes target.
	DefaultBranch(ctx context.Context) (string, error)

	// WorkTree returns the working tree this instance operates on.
	WorkTree() string
}
