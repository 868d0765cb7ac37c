package driving

import (
	"context"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// Engine is the synchronization engine's public surface, consumed by the
// CLI and by service wrappers.
type Engine interface {
	// ScanOnce runs a single full synchronization cycle: remote
	// detection, per-category document merges and the commit/push step.
	// Per-category failures are isolated and collected in the report.
	ScanOnce(ctx context.Context) (*domain.SummaryReport, error)

	// UpdateDocuments runs the per-category merge and commit/push step
	// against the stored repository records, without querying the remote.
	UpdateDocuments(ctx context.Context) (*domain.SummaryReport, error)

	// RunForever runs the periodic scan loop and the continuous file
	// watch loop until ctx is cancelled. In-flight commits finish before
	// it returns.
	RunForever(ctx context.Context) error

	// Status reports cache age, files pending commit and the last error.
	Status(ctx context.Context) (*domain.EngineStatus, error)
}
