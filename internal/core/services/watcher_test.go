package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repokeeper/repokeeper/internal/adapters/driven/storage/memory"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestWatcher(t *testing.T, content string) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	writeDoc(t, path, content)
	return NewWatcher([]string{path}, time.Millisecond, 100*time.Millisecond), path
}

func TestWatcher_ChangeRequestsCommitAfterDebounce(t *testing.T) {
	w, path := newTestWatcher(t, "original")

	writeDoc(t, path, "edited")
	w.PollOnce()
	assert.Equal(t, []string{path}, w.Pending())

	// The debounce has not elapsed yet: no request.
	select {
	case got := <-w.Requests():
		t.Fatalf("premature commit request for %s", got)
	default:
	}

	time.Sleep(150 * time.Millisecond)
	w.PollOnce()

	select {
	case got := <-w.Requests():
		assert.Equal(t, path, got)
	case <-time.After(time.Second):
		t.Fatal("expected a commit request")
	}
}

func TestWatcher_IdenticalRewriteIsIgnored(t *testing.T) {
	w, path := newTestWatcher(t, "original")

	// Rewriting the same bytes must not leave the stable state.
	writeDoc(t, path, "original")
	w.PollOnce()
	assert.Empty(t, w.Pending())

	time.Sleep(150 * time.Millisecond)
	w.PollOnce()
	select {
	case got := <-w.Requests():
		t.Fatalf("unexpected commit request for %s", got)
	default:
	}
}

func TestWatcher_BurstCoalescesIntoOneRequest(t *testing.T) {
	w, path := newTestWatcher(t, "v0")

	// Each further change restarts the debounce window.
	writeDoc(t, path, "v1")
	w.PollOnce()
	time.Sleep(30 * time.Millisecond)
	writeDoc(t, path, "v2")
	w.PollOnce()
	time.Sleep(30 * time.Millisecond)
	w.PollOnce()

	select {
	case got := <-w.Requests():
		t.Fatalf("commit requested before the burst settled: %s", got)
	default:
	}

	time.Sleep(150 * time.Millisecond)
	w.PollOnce()

	select {
	case got := <-w.Requests():
		assert.Equal(t, path, got)
	case <-time.After(time.Second):
		t.Fatal("expected a commit request")
	}

	// Only one request for the whole burst.
	select {
	case got := <-w.Requests():
		t.Fatalf("second commit request for %s", got)
	default:
	}
}

func TestWatcher_RevertCancelsPendingCommit(t *testing.T) {
	w, path := newTestWatcher(t, "original")

	writeDoc(t, path, "edited")
	w.PollOnce()
	require.Equal(t, []string{path}, w.Pending())

	// The file returns to its committed content before the debounce fires.
	writeDoc(t, path, "original")
	w.PollOnce()
	assert.Empty(t, w.Pending())
}

func TestWatcher_CommittedResetsBaseline(t *testing.T) {
	w, path := newTestWatcher(t, "original")

	writeDoc(t, path, "edited")
	w.PollOnce()
	require.NotEmpty(t, w.Pending())

	// The engine commits the current content; the watcher re-baselines.
	w.Committed(context.Background(), path)
	assert.Empty(t, w.Pending())

	w.PollOnce()
	assert.Empty(t, w.Pending())
}

func TestWatcher_MissingFileObservedAsChange(t *testing.T) {
	w, path := newTestWatcher(t, "original")

	require.NoError(t, os.Remove(path))
	w.PollOnce()
	assert.Equal(t, []string{path}, w.Pending())
}

func TestWatcher_UnknownPathIgnored(t *testing.T) {
	w, _ := newTestWatcher(t, "original")

	// Committing a path the watcher does not monitor is a no-op.
	w.Committed(context.Background(), "/nowhere/else.md")
	assert.Empty(t, w.Pending())
}

func TestWatcher_DetectsEditMadeWhileStopped(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "README.md")
	writeDoc(t, path, "committed content")
	states := memory.NewFileStateStore()

	// First run baselines the file and persists the hash.
	_, err := NewPersistentWatcher(ctx, []string{path}, time.Millisecond, 100*time.Millisecond, states)
	require.NoError(t, err)

	// The file is edited while no watcher is running, then a fresh
	// watcher starts over the same state store.
	writeDoc(t, path, "edited while stopped")
	w, err := NewPersistentWatcher(ctx, []string{path}, time.Millisecond, 100*time.Millisecond, states)
	require.NoError(t, err)

	w.PollOnce()
	assert.Equal(t, []string{path}, w.Pending())

	time.Sleep(150 * time.Millisecond)
	w.PollOnce()

	select {
	case got := <-w.Requests():
		assert.Equal(t, path, got)
	case <-time.After(time.Second):
		t.Fatal("expected a commit request for the edit made while stopped")
	}
}

func TestWatcher_CommittedPersistsBaseline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "README.md")
	writeDoc(t, path, "v1")
	states := memory.NewFileStateStore()

	w, err := NewPersistentWatcher(ctx, []string{path}, time.Millisecond, 100*time.Millisecond, states)
	require.NoError(t, err)

	writeDoc(t, path, "v2")
	w.PollOnce()
	require.NotEmpty(t, w.Pending())
	w.Committed(ctx, path)

	// A restarted watcher sees the committed content as stable.
	restarted, err := NewPersistentWatcher(ctx, []string{path}, time.Millisecond, 100*time.Millisecond, states)
	require.NoError(t, err)
	restarted.PollOnce()
	assert.Empty(t, restarted.Pending())
}
