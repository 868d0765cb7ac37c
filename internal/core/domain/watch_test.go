package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonitoredFile_ObserveChange(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &MonitoredFile{Path: "README.md", CommittedHash: "aaa", State: FileStable}

	changed := f.Observe("bbb", now)
	assert.True(t, changed)
	assert.Equal(t, FilePendingCommit, f.State)
	assert.Equal(t, "bbb", f.PendingHash)
	assert.Equal(t, now, f.ChangedAt)

	// Same pending hash again: no state change, timer keeps running.
	changed = f.Observe("bbb", now.Add(time.Second))
	assert.False(t, changed)
	assert.Equal(t, now, f.ChangedAt)

	// A further change restarts the debounce timer.
	later := now.Add(2 * time.Second)
	changed = f.Observe("ccc", later)
	assert.True(t, changed)
	assert.Equal(t, later, f.ChangedAt)
}

func TestMonitoredFile_ObserveCommittedContentIsStable(t *testing.T) {
	now := time.Now()
	f := &MonitoredFile{CommittedHash: "aaa", State: FileStable}

	// Re-observing the committed hash never leaves stable.
	assert.False(t, f.Observe("aaa", now))
	assert.Equal(t, FileStable, f.State)

	// A change followed by a revert cancels the pending commit.
	f.Observe("bbb", now)
	assert.True(t, f.Observe("aaa", now.Add(time.Second)))
	assert.Equal(t, FileStable, f.State)
	assert.Empty(t, f.PendingHash)
}

func TestMonitoredFile_DebounceElapsed(t *testing.T) {
	now := time.Now()
	f := &MonitoredFile{CommittedHash: "aaa"}
	f.Observe("bbb", now)

	debounce := 5 * time.Second
	assert.False(t, f.DebounceElapsed(now.Add(4*time.Second), debounce))
	assert.True(t, f.DebounceElapsed(now.Add(5*time.Second), debounce))

	// Stable files never report an elapsed debounce.
	f.Committed()
	assert.False(t, f.DebounceElapsed(now.Add(time.Hour), debounce))
}

func TestMonitoredFile_CommitCycle(t *testing.T) {
	now := time.Now()
	f := &MonitoredFile{CommittedHash: "aaa"}

	f.Observe("bbb", now)
	f.RequestCommit()
	assert.Equal(t, FileCommitRequested, f.State)

	f.Committed()
	assert.Equal(t, FileStable, f.State)
	assert.Equal(t, "bbb", f.CommittedHash)
	assert.Empty(t, f.PendingHash)
}

func TestFileState_String(t *testing.T) {
	assert.Equal(t, "stable", FileStable.String())
	assert.Equal(t, "pending-commit", FilePendingCommit.String())
	assert.Equal(t, "commit-requested", FileCommitRequested.String())
	assert.Equal(t, "unknown", FileState(99).String())
}
