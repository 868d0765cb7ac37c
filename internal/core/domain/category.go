package domain

import (
	"fmt"
	"strings"
)

// DefaultCategory is the bucket for repositories no rule claims.
const DefaultCategory = "uncategorized"

// Category is a classification bucket mapping a set of repositories to one
// rendered index document.
type Category struct {
	// Name is the category identifier used in rules and repository records.
	Name string

	// Label is the human-readable heading, defaults to Name.
	Label string

	// DocumentPath is the index document this category renders into.
	DocumentPath string

	// WorkTree is the git working tree containing DocumentPath. When a
	// category pushes to its own remote repository this is that clone;
	// otherwise it is the shared index working tree.
	WorkTree string
}

// DisplayLabel returns the label, falling back to the name.
func (c *Category) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// Validate checks the category invariants.
func (c *Category) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: category name is empty", ErrInvalidInput)
	}
	if c.DocumentPath == "" {
		return fmt.Errorf("%w: category %q has no document path", ErrInvalidInput, c.Name)
	}
	return nil
}

// ClassifyRule assigns a repository to a category. Rules are evaluated in
// declaration order; the first match wins.
type ClassifyRule struct {
	// Repo matches one repository by exact full name. Takes precedence
	// over keyword matching when set.
	Repo string

	// Keywords match case-insensitively against the repository name and
	// description. Any single keyword hit is a match.
	Keywords []string

	// Category is the bucket assigned on match.
	Category string
}

// Matches reports whether the rule claims the repository.
func (r *ClassifyRule) Matches(repo *Repository) bool {
	if r.Repo != "" {
		return r.Repo == repo.FullName || r.Repo == repo.Name
	}
	if len(r.Keywords) == 0 {
		return false
	}
	name := strings.ToLower(repo.Name)
	desc := strings.ToLower(repo.Description)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(name, kw) || strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// Classify applies the ordered rule set to a repository and returns the
// winning category, or fallback if no rule matches.
func Classify(repo *Repository, rules []ClassifyRule, fallback string) string {
	for i := range rules {
		if rules[i].Matches(repo) {
			return rules[i].Category
		}
	}
	if fallback == "" {
		return DefaultCategory
	}
	return fallback
}
