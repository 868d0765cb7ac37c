package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
	"github.com/repokeeper/repokeeper/internal/logger"
)

const (
	// DefaultPollInterval is how often monitored files are re-hashed.
	DefaultPollInterval = 3 * time.Second

	// DefaultDebounce is how long a file must stay quiet after a change
	// before a commit is requested.
	DefaultDebounce = 5 * time.Second
)

// Watcher polls a set of documents for content changes and debounces bursts
// of changes into single commit requests.
//
// Polling is authoritative: hashes are compared against the last committed
// hash, so a rewrite producing byte-identical content never requests a
// commit. An optional fsnotify watcher only shortens the reaction time by
// triggering an immediate re-hash of the touched file.
type Watcher struct {
	poll     time.Duration
	debounce time.Duration

	mu    sync.Mutex
	files map[string]*domain.MonitoredFile

	requests chan string
	notify   *fsnotify.Watcher

	// states, when set, persists committed baselines across restarts.
	states driven.FileStateStore
}

// NewWatcher creates a watcher over paths. Zero intervals select defaults.
// The committed baseline of every file is its content at construction time,
// so edits made before construction are invisible; use NewPersistentWatcher
// when baselines must survive restarts.
func NewWatcher(paths []string, poll, debounce time.Duration) *Watcher {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	files := make(map[string]*domain.MonitoredFile, len(paths))
	for _, p := range paths {
		files[p] = &domain.MonitoredFile{
			Path:          p,
			CommittedHash: hashFile(p),
			State:         domain.FileStable,
		}
	}

	return &Watcher{
		poll:     poll,
		debounce: debounce,
		files:    files,
		requests: make(chan string, len(paths)+1),
	}
}

// NewPersistentWatcher creates a watcher whose committed baselines are
// restored from states. A file edited while no watcher was running hashes
// differently from its persisted baseline, so the edit is observed as a
// change on the first poll. Paths with no persisted record baseline to
// their current content, which is then persisted.
func NewPersistentWatcher(ctx context.Context, paths []string, poll, debounce time.Duration, states driven.FileStateStore) (*Watcher, error) {
	w := NewWatcher(paths, poll, debounce)
	w.states = states

	persisted, err := states.CommittedHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring watch baselines: %w", err)
	}

	for path, f := range w.files {
		if hash, ok := persisted[path]; ok {
			f.CommittedHash = hash
			continue
		}
		if err := states.SaveCommittedHash(ctx, path, f.CommittedHash); err != nil {
			return nil, fmt.Errorf("persisting watch baseline for %s: %w", path, err)
		}
	}
	return w, nil
}

// Requests returns the channel carrying paths whose debounce elapsed.
func (w *Watcher) Requests() <-chan string {
	return w.requests
}

// Run polls until ctx is cancelled. It owns the fsnotify lifecycle; a
// failure to set up fsnotify degrades to pure polling.
func (w *Watcher) Run(ctx context.Context) error {
	if notify, err := fsnotify.NewWatcher(); err != nil {
		logger.Warn("fsnotify unavailable, falling back to polling only: %v", err)
	} else {
		w.notify = notify
		defer notify.Close()
		w.mu.Lock()
		for path := range w.files {
			if err := notify.Add(path); err != nil {
				logger.Debug("fsnotify add %s: %v", path, err)
			}
		}
		w.mu.Unlock()
	}

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		var events <-chan fsnotify.Event
		var errs <-chan error
		if w.notify != nil {
			events = w.notify.Events
			errs = w.notify.Errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.pollAll()
		case ev := <-events:
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.pollOne(ev.Name)
			}
		case err := <-errs:
			if err != nil {
				logger.Warn("fsnotify: %v", err)
			}
		}
	}
}

// PollOnce runs a single poll pass over all files. Exposed for the engine's
// one-shot scan and for tests; Run calls it on every tick.
func (w *Watcher) PollOnce() {
	w.pollAll()
}

// Pending returns the paths currently awaiting their debounce commit,
// sorted for stable output.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var pending []string
	for path, f := range w.files {
		if f.State != domain.FileStable {
			pending = append(pending, path)
		}
	}
	sort.Strings(pending)
	return pending
}

// Committed records that path's current content has been committed,
// returning its state machine to Stable and persisting the new baseline
// when a state store is attached.
func (w *Watcher) Committed(ctx context.Context, path string) {
	w.mu.Lock()

	f, ok := w.files[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	// Re-hash rather than trusting PendingHash: the commit may have been
	// driven by the scan loop with content the watcher never polled.
	hash := hashFile(path)
	f.CommittedHash = hash
	f.PendingHash = ""
	f.State = domain.FileStable
	w.mu.Unlock()

	if w.states != nil {
		// The commit already happened; a failed persist only degrades
		// the next restart's baseline.
		if err := w.states.SaveCommittedHash(ctx, path, hash); err != nil {
			logger.Warn("persisting watch baseline for %s: %v", path, err)
		}
	}
}

func (w *Watcher) pollAll() {
	w.mu.Lock()
	ready := w.observeLocked(time.Now(), w.paths())
	w.mu.Unlock()
	w.dispatch(ready)
}

func (w *Watcher) pollOne(path string) {
	w.mu.Lock()
	ready := w.observeLocked(time.Now(), []string{path})
	w.mu.Unlock()
	w.dispatch(ready)
}

// paths returns all monitored paths; caller holds the lock.
func (w *Watcher) paths() []string {
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// observeLocked feeds fresh hashes into the per-file state machines and
// collects files whose debounce elapsed. Caller holds the lock.
func (w *Watcher) observeLocked(now time.Time, paths []string) []string {
	var ready []string
	for _, path := range paths {
		f, ok := w.files[path]
		if !ok {
			continue
		}

		hash := hashFile(path)
		if f.Observe(hash, now) {
			logger.Debug("watch: %s -> %s", path, f.State)
		}

		if f.DebounceElapsed(now, w.debounce) {
			f.RequestCommit()
			ready = append(ready, path)
		}
	}
	return ready
}

// dispatch sends commit requests outside the lock so a slow consumer never
// blocks polling state updates.
func (w *Watcher) dispatch(paths []string) {
	for _, path := range paths {
		logger.Info("watch: commit requested for %s", path)
		w.requests <- path
	}
}

// hashFile returns the hex SHA-256 of the file content. A missing or
// unreadable file hashes to the empty string, which compares unequal to any
// content hash and so is observed as a change.
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
