package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable indicates the remote provider could not be
	// queried and no cached listing exists to fall back on.
	ErrRemoteUnavailable = errors.New("remote provider unavailable")

	// ErrMarkerNotFound indicates a document has no machine-owned region.
	// The engine never creates one on its own: appending markers to a
	// hand-authored file is a configuration decision, not a default.
	ErrMarkerNotFound = errors.New("marker region not found")

	// ErrCommitFailed indicates the commit step failed. Commit failures
	// are treated as non-transient and are never retried.
	ErrCommitFailed = errors.New("commit failed")

	// ErrPushRejected indicates the remote rejected a push because it has
	// diverged. Requires manual reconciliation; the engine never
	// force-pushes.
	ErrPushRejected = errors.New("push rejected")

	// ErrStorage indicates the persistent store is unreliable. Callers
	// should halt the affected loop rather than operate blind.
	ErrStorage = errors.New("storage error")

	// ErrRateLimited indicates the provider API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrScanInProgress indicates a scan cycle is already running.
	ErrScanInProgress = errors.New("scan in progress")
)
