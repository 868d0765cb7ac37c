package domain

import "time"

// CommitResult is the outcome of one commit-and-push run.
type CommitResult struct {
	// NoOp is true when nothing was staged and no commit was created.
	NoOp bool

	// Branch is the resolved default branch the commit was pushed to.
	Branch string

	// CommitHash is the created commit, empty for no-ops.
	CommitHash string

	// Pushed reports whether the push succeeded.
	Pushed bool

	// Attempts is the number of push attempts made.
	Attempts int
}

// SummaryReport describes one full synchronization cycle.
type SummaryReport struct {
	// ID identifies the cycle in logs.
	ID string

	// StartedAt and EndedAt bound the cycle.
	StartedAt time.Time
	EndedAt   time.Time

	// ChangedDocuments lists documents whose marker region was rewritten.
	ChangedDocuments []string

	// NewRepositories lists repositories first observed this cycle.
	NewRepositories []string

	// Errors collects per-category and per-repository failures. One
	// category failing never aborts the others.
	Errors []string
}

// EngineStatus is the operator-facing snapshot of the engine.
type EngineStatus struct {
	// CacheAge is the age of the remote listing cache entry; zero when
	// no entry exists.
	CacheAge time.Duration

	// PendingFiles lists monitored files awaiting their debounce commit.
	PendingFiles []string

	// LastError is the most recent failure message, empty when healthy.
	LastError string

	// LastScan is when the last scan cycle finished.
	LastScan time.Time

	// Running reports whether the engine loops are active.
	Running bool
}
