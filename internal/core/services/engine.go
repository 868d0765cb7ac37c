package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
	"github.com/repokeeper/repokeeper/internal/core/ports/driving"
	"github.com/repokeeper/repokeeper/internal/logger"
)

// DefaultMonitorInterval is the period of the scan loop.
const DefaultMonitorInterval = 60 * time.Second

// Ensure Engine implements the driving port.
var _ driving.Engine = (*Engine)(nil)

// Engine orchestrates the two concurrent loops: the periodic full
// synchronization cycle and the continuous file-watch loop. A single mutex
// serializes their access to the working trees and the cache; it is held
// only across the deterministic merge/commit section, never across network
// calls, so a slow remote query never blocks the other loop.
type Engine struct {
	detector *Detector
	merger   *Merger
	watcher  *Watcher
	repos    driven.RepositoryStore
	cache    driven.CacheStore

	categories []domain.Category
	// vcs maps a working tree to its pipeline. Categories sharing a tree
	// share the pipeline instance.
	vcs map[string]driven.VersionControl

	interval      time.Duration
	appendMissing bool

	// workMu guards the working trees and cache across both loops.
	workMu sync.Mutex

	// stateMu guards the status snapshot fields below.
	stateMu  sync.RWMutex
	running  bool
	scanning bool
	lastErr  string
	lastScan time.Time
}

// NewEngine wires the orchestrator. vcs must contain a pipeline for every
// category working tree. Zero interval selects the default.
func NewEngine(
	detector *Detector,
	merger *Merger,
	watcher *Watcher,
	repos driven.RepositoryStore,
	cache driven.CacheStore,
	categories []domain.Category,
	vcs map[string]driven.VersionControl,
	interval time.Duration,
	appendMissing bool,
) *Engine {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &Engine{
		detector:      detector,
		merger:        merger,
		watcher:       watcher,
		repos:         repos,
		cache:         cache,
		categories:    categories,
		vcs:           vcs,
		interval:      interval,
		appendMissing: appendMissing,
	}
}

// Detector returns the engine's remote detector.
func (e *Engine) Detector() *Detector {
	return e.detector
}

// ScanOnce runs a single full synchronization cycle. Per-category failures
// are isolated: one category's error never aborts the others. The returned
// report always carries whatever progress was made.
func (e *Engine) ScanOnce(ctx context.Context) (*domain.SummaryReport, error) {
	if !e.beginScan() {
		return nil, domain.ErrScanInProgress
	}
	defer e.endScan()

	report := &domain.SummaryReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() {
		report.EndedAt = time.Now()
		e.recordScan(report)
	}()

	// Housekeeping before the cycle; a purge failure only warns, the
	// TTL check on read keeps expired entries out regardless.
	e.workMu.Lock()
	if purged, err := e.cache.PurgeExpired(ctx); err != nil {
		logger.Warn("cache purge failed: %v", err)
	} else if purged > 0 {
		logger.Debug("purged %d expired cache entries", purged)
	}
	e.workMu.Unlock()

	// Remote detection happens outside the lock: it is network I/O.
	fresh, err := e.detector.Detect(ctx, false)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, err
	}
	for i := range fresh {
		report.NewRepositories = append(report.NewRepositories, fresh[i].FullName)
	}

	e.syncCategories(ctx, report)

	return report, nil
}

// UpdateDocuments runs the merge and commit/push step against the stored
// records only, without touching the remote. Useful after hand-editing the
// classification rules or the store.
func (e *Engine) UpdateDocuments(ctx context.Context) (*domain.SummaryReport, error) {
	if !e.beginScan() {
		return nil, domain.ErrScanInProgress
	}
	defer e.endScan()

	report := &domain.SummaryReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() {
		report.EndedAt = time.Now()
		e.recordScan(report)
	}()

	e.syncCategories(ctx, report)

	return report, nil
}

func (e *Engine) syncCategories(ctx context.Context, report *domain.SummaryReport) {
	for i := range e.categories {
		cat := &e.categories[i]
		if err := e.syncCategory(ctx, cat, report); err != nil {
			logger.Error("category %s: %v", cat.Name, err)
			report.Errors = append(report.Errors, fmt.Sprintf("category %s: %v", cat.Name, err))
		}
	}
}

// syncCategory merges one category's entry snapshot into its document and
// commits the result. The working-tree lock covers the read-merge-write and
// the commit staging, but not the push.
func (e *Engine) syncCategory(ctx context.Context, cat *domain.Category, report *domain.SummaryReport) error {
	entries, indexed, err := e.snapshotEntries(ctx, cat.Name)
	if err != nil {
		return err
	}

	pipeline := e.vcs[cat.WorkTree]
	if pipeline == nil {
		return fmt.Errorf("no version control pipeline for work tree %s", cat.WorkTree)
	}

	e.workMu.Lock()
	result, changed, err := e.mergeAndCommitLocked(ctx, cat, entries, pipeline)
	e.workMu.Unlock()
	if err != nil {
		return err
	}

	if changed {
		report.ChangedDocuments = append(report.ChangedDocuments, cat.DocumentPath)

		// Push outside the lock: network I/O must not block the
		// watch loop.
		if !result.NoOp {
			if err := pipeline.Push(ctx, result.Branch); err != nil {
				return fmt.Errorf("pushing %s: %w", cat.Name, err)
			}
		}
	}

	// The merge succeeded, so the entries are in the document — either
	// written this cycle or already present from an earlier edit.
	for _, fullName := range indexed {
		if err := e.repos.MarkIndexed(ctx, fullName, cat.Name); err != nil {
			return fmt.Errorf("marking %s indexed: %w", fullName, err)
		}
	}
	return nil
}

// snapshotEntries reads the category's repositories as one immutable
// snapshot for this cycle: already-indexed entries first (stable order),
// then unindexed ones claimed by this category. Returns the entry set and
// the full names newly indexed by this merge.
func (e *Engine) snapshotEntries(ctx context.Context, category string) ([]domain.IndexEntry, []string, error) {
	indexed, err := e.repos.ListByCategory(ctx, category)
	if err != nil {
		return nil, nil, fmt.Errorf("listing %s repositories: %w", category, err)
	}
	unindexed, err := e.repos.ListUnindexed(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing unindexed repositories: %w", err)
	}

	entries := make([]domain.IndexEntry, 0, len(indexed)+len(unindexed))
	for i := range indexed {
		entries = append(entries, indexed[i].Entry())
	}
	var fresh []string
	for i := range unindexed {
		if unindexed[i].Category != category {
			continue
		}
		entries = append(entries, unindexed[i].Entry())
		fresh = append(fresh, unindexed[i].FullName)
	}
	return entries, fresh, nil
}

// mergeAndCommitLocked rewrites the category document and stages/commits it.
// Caller holds workMu. Returns changed=false when the merge was a no-op.
func (e *Engine) mergeAndCommitLocked(
	ctx context.Context,
	cat *domain.Category,
	entries []domain.IndexEntry,
	pipeline driven.VersionControl,
) (domain.CommitResult, bool, error) {
	raw, err := os.ReadFile(cat.DocumentPath)
	if err != nil {
		return domain.CommitResult{}, false, fmt.Errorf("reading %s: %w", cat.DocumentPath, err)
	}
	document := string(raw)

	merged, err := e.merger.Merge(document, entries)
	if errors.Is(err, domain.ErrMarkerNotFound) && e.appendMissing {
		document = e.merger.AppendRegion(document)
		merged, err = e.merger.Merge(document, entries)
	}
	if err != nil {
		return domain.CommitResult{}, false, err
	}

	if merged == string(raw) {
		logger.Debug("category %s: document unchanged", cat.Name)
		return domain.CommitResult{NoOp: true}, false, nil
	}

	if err := os.WriteFile(cat.DocumentPath, []byte(merged), 0o644); err != nil {
		return domain.CommitResult{}, false, fmt.Errorf("writing %s: %w", cat.DocumentPath, err)
	}

	message := fmt.Sprintf("Update %s repository index", cat.Name)
	result, err := pipeline.Commit(ctx, []string{cat.DocumentPath}, message)
	if err != nil {
		return domain.CommitResult{}, false, err
	}

	// The watcher must not re-commit the engine's own rewrite.
	e.watcher.Committed(ctx, cat.DocumentPath)

	logger.Info("category %s: document updated (%d entries)", cat.Name, len(entries))
	return result, true, nil
}

// RunForever runs the scan loop and the watch loop until ctx is cancelled.
// Both loops check the shutdown signal at their top and at every sleep
// boundary; an in-flight commit finishes before the method returns.
func (e *Engine) RunForever(ctx context.Context) error {
	e.setRunning(true)
	defer e.setRunning(false)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watcher stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.watchLoop(ctx)
	}()

	e.scanLoop(ctx)
	wg.Wait()
	return ctx.Err()
}

// scanLoop runs a scan immediately, then on every monitor interval.
func (e *Engine) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if _, err := e.ScanOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("scan cycle: %v", err)
			if errors.Is(err, domain.ErrStorage) {
				// The cache is unreliable; stop scanning rather
				// than operate blind. The watch loop keeps
				// propagating manual edits.
				logger.Error("halting scan loop: storage unreliable")
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// watchLoop commits files the watcher hands over, bypassing the scan
// cadence so manual edits propagate promptly.
func (e *Engine) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-e.watcher.Requests():
			if err := e.commitWatched(ctx, path); err != nil {
				logger.Error("watch commit %s: %v", path, err)
				e.setLastError(err.Error())
			}
		}
	}
}

// commitWatched commits one watched document. The lock covers staging and
// commit; the push happens outside it.
func (e *Engine) commitWatched(ctx context.Context, path string) error {
	pipeline := e.pipelineFor(path)
	if pipeline == nil {
		return fmt.Errorf("no version control pipeline for %s", path)
	}

	e.workMu.Lock()
	result, err := pipeline.Commit(ctx, []string{path}, "Update repository index (manual edit)")
	if err == nil && !result.NoOp {
		e.watcher.Committed(ctx, path)
	}
	e.workMu.Unlock()
	if err != nil {
		return err
	}
	if result.NoOp {
		// Nothing staged: the content already matches HEAD.
		e.watcher.Committed(ctx, path)
		return nil
	}

	return pipeline.Push(ctx, result.Branch)
}

// pipelineFor resolves the pipeline owning a document path via its category.
func (e *Engine) pipelineFor(path string) driven.VersionControl {
	for i := range e.categories {
		if e.categories[i].DocumentPath == path {
			return e.vcs[e.categories[i].WorkTree]
		}
	}
	return nil
}

// Status reports the operator-facing engine snapshot.
func (e *Engine) Status(ctx context.Context) (*domain.EngineStatus, error) {
	status := &domain.EngineStatus{
		PendingFiles: e.watcher.Pending(),
	}

	age, err := e.detector.CacheAge(ctx)
	switch {
	case err == nil:
		status.CacheAge = age
	case errors.Is(err, domain.ErrNotFound):
		// No listing cached yet; age stays zero.
	default:
		return nil, err
	}

	e.stateMu.RLock()
	status.LastError = e.lastErr
	status.LastScan = e.lastScan
	status.Running = e.running
	e.stateMu.RUnlock()

	return status, nil
}

func (e *Engine) beginScan() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.scanning {
		return false
	}
	e.scanning = true
	return true
}

func (e *Engine) endScan() {
	e.stateMu.Lock()
	e.scanning = false
	e.stateMu.Unlock()
}

func (e *Engine) recordScan(report *domain.SummaryReport) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.lastScan = report.EndedAt
	if len(report.Errors) > 0 {
		e.lastErr = report.Errors[len(report.Errors)-1]
	} else {
		e.lastErr = ""
	}
}

func (e *Engine) setRunning(v bool) {
	e.stateMu.Lock()
	e.running = v
	e.stateMu.Unlock()
}

func (e *Engine) setLastError(msg string) {
	e.stateMu.Lock()
	e.lastErr = msg
	e.stateMu.Unlock()
}
