package domain

// Default marker sentinels. Content strictly between the start and end
// marker lines is machine-owned; everything outside them belongs to humans
// and is never modified by the engine.
const (
	DefaultStartMarker = "<!-- AUTO-GENERATED-CONTENT:START -->"
	DefaultEndMarker   = "<!-- AUTO-GENERATED-CONTENT:END -->"
)

// IndexEntry is one repository line inside a document's marker region.
type IndexEntry struct {
	// Key is the stable identity of the entry (repository full name).
	// Merging is keyed on it: existing keys keep their relative order,
	// new keys are appended.
	Key string

	// Name is the link text.
	Name string

	// URL is the link target.
	URL string

	// Description follows the link, possibly empty.
	Description string
}
