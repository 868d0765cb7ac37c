package domain

import (
	"fmt"
	"strings"
	"time"
)

// Repository represents a remote repository observed from the hosting
// provider or registered from a local source file. Records are never
// deleted; repositories that disappear from the remote listing are marked
// stale instead, so index history is preserved.
type Repository struct {
	// FullName is the "owner/name" identifier. It is the stable key used
	// for deduplication and for entries inside document marker regions.
	FullName string

	// Name is the repository name without the owner prefix.
	Name string

	// Description is the provider-side description, possibly empty.
	Description string

	// URL is the web URL of the repository.
	URL string

	// Category is the classification bucket. Defaults to the configured
	// default category ("uncategorized" unless overridden).
	Category string

	// CreatedAt is when the repository was created on the provider.
	CreatedAt time.Time

	// Indexed reports whether the repository has been written into a
	// category document.
	Indexed bool

	// IndexedAt is when the repository was first written into a document.
	IndexedAt time.Time

	// Stale reports that the repository was not present in the most
	// recent remote listing.
	Stale bool
}

// Owner returns the owner part of the FullName, or "" if FullName is not
// in owner/name form.
func (r *Repository) Owner() string {
	owner, _, ok := strings.Cut(r.FullName, "/")
	if !ok {
		return ""
	}
	return owner
}

// Validate checks the repository invariants.
func (r *Repository) Validate() error {
	if r.FullName == "" {
		return fmt.Errorf("%w: repository full name is empty", ErrInvalidInput)
	}
	if !strings.Contains(r.FullName, "/") {
		return fmt.Errorf("%w: repository %q is not in owner/name form", ErrInvalidInput, r.FullName)
	}
	return nil
}

// Entry converts the repository into its index document representation.
func (r *Repository) Entry() IndexEntry {
	return IndexEntry{
		Key:         r.FullName,
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
	}
}
