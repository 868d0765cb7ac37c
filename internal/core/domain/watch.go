package domain

import "time"

// FileState is the change-detection state of a monitored file.
type FileState int

const (
	// FileStable means the file content matches the last committed hash.
	FileStable FileState = iota

	// FilePendingCommit means a content change was observed and the
	// debounce timer is running. Further changes restart the timer.
	FilePendingCommit

	// FileCommitRequested means the debounce interval elapsed with no
	// further change; the file is ready to be handed to the pipeline.
	FileCommitRequested
)

// String returns the state name for logs.
func (s FileState) String() string {
	switch s {
	case FileStable:
		return "stable"
	case FilePendingCommit:
		return "pending-commit"
	case FileCommitRequested:
		return "commit-requested"
	default:
		return "unknown"
	}
}

// MonitoredFile tracks one document watched for content changes.
//
// The state machine is Stable -> PendingCommit (hash changed) ->
// CommitRequested (debounce elapsed quietly) -> Stable (committed).
// Hashes are compared against CommittedHash, not the previous poll, so a
// rewrite producing byte-identical output never triggers a commit.
type MonitoredFile struct {
	// Path is the watched document path.
	Path string

	// CommittedHash is the content hash at the last commit.
	CommittedHash string

	// PendingHash is the most recently observed (uncommitted) hash.
	PendingHash string

	// ChangedAt is when the pending hash was last observed to change.
	ChangedAt time.Time

	// State is the current position in the state machine.
	State FileState
}

// Observe feeds a freshly computed content hash into the state machine at
// time now. It returns true when the observation changed the file's state.
func (f *MonitoredFile) Observe(hash string, now time.Time) bool {
	if hash == f.CommittedHash {
		// Back to the committed content: cancel any pending commit.
		if f.State != FileStable {
			f.State = FileStable
			f.PendingHash = ""
			return true
		}
		return false
	}

	if hash != f.PendingHash {
		f.PendingHash = hash
		f.ChangedAt = now
		f.State = FilePendingCommit
		return true
	}
	return false
}

// DebounceElapsed reports whether the file is pending and has been quiet
// for at least the debounce interval.
func (f *MonitoredFile) DebounceElapsed(now time.Time, debounce time.Duration) bool {
	return f.State == FilePendingCommit && now.Sub(f.ChangedAt) >= debounce
}

// RequestCommit transitions PendingCommit -> CommitRequested.
func (f *MonitoredFile) RequestCommit() {
	f.State = FileCommitRequested
}

// Committed records a successful commit of the pending content and returns
// the file to Stable.
func (f *MonitoredFile) Committed() {
	f.CommittedHash = f.PendingHash
	f.PendingHash = ""
	f.State = FileStable
}
