package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
)

// repositoryStore implements driven.RepositoryStore.
type repositoryStore struct {
	store *Store
}

var _ driven.RepositoryStore = (*repositoryStore)(nil)

const repoColumns = "full_name, name, description, url, category, created_at, indexed, indexed_at, stale"

// Save stores or updates a repository record keyed by full name.
func (r *repositoryStore) Save(ctx context.Context, repo domain.Repository) error {
	if err := repo.Validate(); err != nil {
		return err
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO repositories (full_name, name, description, url, category, created_at, indexed, indexed_at, stale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			url = excluded.url,
			category = excluded.category,
			created_at = excluded.created_at,
			indexed = excluded.indexed,
			indexed_at = excluded.indexed_at,
			stale = excluded.stale,
			updated_at = excluded.updated_at
	`, repo.FullName, repo.Name, repo.Description, repo.URL, repo.Category,
		formatNullableTime(repo.CreatedAt), boolToInt(repo.Indexed),
		formatNullableTime(repo.IndexedAt), boolToInt(repo.Stale),
		time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("%w: saving repository %s: %v", domain.ErrStorage, repo.FullName, err)
	}
	return nil
}

// Get retrieves a repository by full name.
func (r *repositoryStore) Get(ctx context.Context, fullName string) (*domain.Repository, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT "+repoColumns+" FROM repositories WHERE full_name = ?", fullName)

	repo, err := scanRepository(row)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// List returns all repository records, ordered by creation time.
func (r *repositoryStore) List(ctx context.Context) ([]domain.Repository, error) {
	return r.query(ctx,
		"SELECT "+repoColumns+" FROM repositories ORDER BY created_at, full_name")
}

// ListByCategory returns indexed repositories in a category, ordered by the
// time they were added to the index.
func (r *repositoryStore) ListByCategory(ctx context.Context, category string) ([]domain.Repository, error) {
	return r.query(ctx,
		"SELECT "+repoColumns+" FROM repositories WHERE category = ? AND indexed = 1 ORDER BY indexed_at, created_at, full_name",
		category)
}

// ListUnindexed returns repositories not yet written to any document.
func (r *repositoryStore) ListUnindexed(ctx context.Context) ([]domain.Repository, error) {
	return r.query(ctx,
		"SELECT "+repoColumns+" FROM repositories WHERE indexed = 0 ORDER BY created_at, full_name")
}

// MarkIndexed flags a repository as written into its category document.
func (r *repositoryStore) MarkIndexed(ctx context.Context, fullName, category string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE repositories
		SET indexed = 1, category = ?, indexed_at = COALESCE(indexed_at, ?), updated_at = ?
		WHERE full_name = ?
	`, category, now, now, fullName)
	if err != nil {
		return fmt.Errorf("%w: marking %s indexed: %v", domain.ErrStorage, fullName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: marking %s indexed: %v", domain.ErrStorage, fullName, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkStale flags records missing from observed as stale and clears the
// flag on the ones present. Runs in one transaction so a concurrent reader
// never sees a half-reconciled listing.
func (r *repositoryStore) MarkStale(ctx context.Context, observed []string) (int, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: marking stale: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(observed)), ",")
	args := make([]any, len(observed))
	for i, name := range observed {
		args[i] = name
	}

	var res sql.Result
	if len(observed) == 0 {
		res, err = tx.ExecContext(ctx, "UPDATE repositories SET stale = 1 WHERE stale = 0")
	} else {
		res, err = tx.ExecContext(ctx,
			"UPDATE repositories SET stale = 1 WHERE stale = 0 AND full_name NOT IN ("+placeholders+")", args...)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: marking stale: %v", domain.ErrStorage, err)
	}
	staled, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: marking stale: %v", domain.ErrStorage, err)
	}

	if len(observed) > 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE repositories SET stale = 0 WHERE stale = 1 AND full_name IN ("+placeholders+")", args...); err != nil {
			return 0, fmt.Errorf("%w: clearing stale flags: %v", domain.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: marking stale: %v", domain.ErrStorage, err)
	}
	return int(staled), nil
}

func (r *repositoryStore) query(ctx context.Context, q string, args ...any) ([]domain.Repository, error) {
	rows, err := r.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying repositories: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		repo, err := scanRepositoryRows(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating repositories: %v", domain.ErrStorage, err)
	}
	return repos, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(row *sql.Row) (*domain.Repository, error) {
	repo, err := scanRepo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return repo, err
}

func scanRepositoryRows(rows *sql.Rows) (*domain.Repository, error) {
	return scanRepo(rows)
}

func scanRepo(s scanner) (*domain.Repository, error) {
	var repo domain.Repository
	var createdAt, indexedAt sql.NullString
	var indexed, stale int

	if err := s.Scan(&repo.FullName, &repo.Name, &repo.Description, &repo.URL,
		&repo.Category, &createdAt, &indexed, &indexedAt, &stale); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scanning repository: %v", domain.ErrStorage, err)
	}

	repo.CreatedAt = parseNullableTime(createdAt)
	repo.IndexedAt = parseNullableTime(indexedAt)
	repo.Indexed = indexed != 0
	repo.Stale = stale != 0
	return &repo, nil
}

func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
