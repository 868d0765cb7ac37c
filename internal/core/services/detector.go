package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
	"github.com/repokeeper/repokeeper/internal/logger"
)

const (
	// DefaultCacheTTL is how long a remote listing stays fresh.
	DefaultCacheTTL = 300 * time.Second

	// DefaultQueryTimeout bounds a single remote listing call.
	DefaultQueryTimeout = 30 * time.Second
)

// Detector queries the remote hosting provider for the repository list,
// caching results in a CacheStore, and classifies newly seen repositories
// into categories.
type Detector struct {
	provider driven.RemoteProvider
	cache    driven.CacheStore
	repos    driven.RepositoryStore

	rules           []domain.ClassifyRule
	defaultCategory string
	ttl             time.Duration
	queryTimeout    time.Duration
}

// NewDetector creates a detector. Zero ttl and queryTimeout select the
// defaults.
func NewDetector(
	provider driven.RemoteProvider,
	cache driven.CacheStore,
	repos driven.RepositoryStore,
	rules []domain.ClassifyRule,
	defaultCategory string,
	ttl time.Duration,
	queryTimeout time.Duration,
) *Detector {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	if defaultCategory == "" {
		defaultCategory = domain.DefaultCategory
	}
	return &Detector{
		provider:        provider,
		cache:           cache,
		repos:           repos,
		rules:           rules,
		defaultCategory: defaultCategory,
		ttl:             ttl,
		queryTimeout:    queryTimeout,
	}
}

// cacheKey is the query signature for the account's repository listing.
func (d *Detector) cacheKey() string {
	return "repo-list:" + d.provider.Account()
}

// ListRepositories returns the account's repositories, serving from the
// cache unless forceRefresh is set or the entry has expired. When the
// remote query fails and a prior (possibly expired) entry exists, the stale
// listing is returned as a degraded fallback with a logged warning; with no
// prior entry the error wraps domain.ErrRemoteUnavailable.
func (d *Detector) ListRepositories(ctx context.Context, forceRefresh bool) ([]domain.Repository, error) {
	key := d.cacheKey()

	if !forceRefresh {
		payload, ok, err := d.cache.Get(ctx, key)
		if err != nil {
			// Cache read failed: fall back to a forced remote fetch
			// rather than operating blind on it.
			logger.Warn("cache read for %s failed, forcing remote fetch: %v", key, err)
		} else if ok {
			repos, err := decodeListing(payload)
			if err == nil {
				logger.Debug("remote listing for %s served from cache (%d repositories)", d.provider.Account(), len(repos))
				return repos, nil
			}
			logger.Warn("cache payload for %s is corrupt, refetching: %v", key, err)
		}
	}

	qctx, cancel := context.WithTimeout(ctx, d.queryTimeout)
	defer cancel()

	repos, err := d.provider.ListRepositories(qctx)
	if err != nil {
		// Degraded fallback: a stale listing beats no listing.
		payload, fetchedAt, staleErr := d.cache.GetStale(ctx, key)
		if staleErr == nil {
			stale, decErr := decodeListing(payload)
			if decErr == nil {
				logger.Warn("remote query for %s failed (%v); using listing cached %s ago",
					d.provider.Account(), err, time.Since(fetchedAt).Round(time.Second))
				return stale, nil
			}
		}
		return nil, fmt.Errorf("%w: listing %s: %v", domain.ErrRemoteUnavailable, d.provider.Account(), err)
	}

	repos = dedupeListing(repos)

	payload, err := json.Marshal(repos)
	if err != nil {
		return nil, fmt.Errorf("encoding listing: %w", err)
	}
	if err := d.cache.Put(ctx, key, payload, d.ttl); err != nil {
		// The cache is unreliable; surface it so the scan loop halts
		// rather than silently hammering the provider every cycle.
		return nil, fmt.Errorf("caching listing: %w", err)
	}

	logger.Info("fetched %d repositories for %s", len(repos), d.provider.Account())
	return repos, nil
}

// Detect runs one detection pass: list repositories, reconcile them with
// the store, classify the ones never seen before and mark records missing
// from the listing as stale. Returns the newly observed repositories.
func (d *Detector) Detect(ctx context.Context, forceRefresh bool) ([]domain.Repository, error) {
	listing, err := d.ListRepositories(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	known, err := d.repos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing known repositories: %w", err)
	}
	knownByName := make(map[string]*domain.Repository, len(known))
	for i := range known {
		knownByName[known[i].FullName] = &known[i]
	}

	observed := make([]string, 0, len(listing))
	var fresh []domain.Repository
	for i := range listing {
		repo := listing[i]
		observed = append(observed, repo.FullName)

		prev, seen := knownByName[repo.FullName]
		if seen {
			// Only provider-side metadata moves; classification and
			// the indexed flag belong to the stored record.
			if prev.Description != repo.Description || prev.URL != repo.URL {
				prev.Description = repo.Description
				prev.URL = repo.URL
				if err := d.repos.Save(ctx, *prev); err != nil {
					return nil, fmt.Errorf("updating %s: %w", repo.FullName, err)
				}
			}
			continue
		}

		repo.Category = domain.Classify(&repo, d.rules, d.defaultCategory)
		repo.Indexed = false
		if err := d.repos.Save(ctx, repo); err != nil {
			return nil, fmt.Errorf("saving %s: %w", repo.FullName, err)
		}
		logger.Info("new repository %s classified as %s", repo.FullName, repo.Category)
		fresh = append(fresh, repo)
	}

	staled, err := d.repos.MarkStale(ctx, observed)
	if err != nil {
		return nil, fmt.Errorf("marking stale repositories: %w", err)
	}
	if staled > 0 {
		logger.Warn("%d repositories no longer observed remotely, marked stale", staled)
	}

	return fresh, nil
}

// CacheAge returns the age of the current listing cache entry, or zero and
// domain.ErrNotFound when none exists.
func (d *Detector) CacheAge(ctx context.Context) (time.Duration, error) {
	_, fetchedAt, err := d.cache.GetStale(ctx, d.cacheKey())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return time.Since(fetchedAt), nil
}

func decodeListing(payload []byte) ([]domain.Repository, error) {
	var repos []domain.Repository
	if err := json.Unmarshal(payload, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// dedupeListing drops duplicate full names, keeping the first occurrence
// so provider default order is preserved.
func dedupeListing(repos []domain.Repository) []domain.Repository {
	seen := make(map[string]struct{}, len(repos))
	out := repos[:0]
	for _, r := range repos {
		if _, dup := seen[r.FullName]; dup {
			continue
		}
		seen[r.FullName] = struct{}{}
		out = append(out, r)
	}
	return out
}
