package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

// entryLine matches one rendered index entry: "- [Name](URL)" with an
// optional " - Description" tail.
var entryLine = regexp.MustCompile(`^- \[([^\]]*)\]\((\S+)\)(?: - (.*))?$`)

// Merger reconciles a document's machine-owned marker region with a new
// entry set. Text outside the markers is never touched; text inside is
// fully re-rendered from the merged entries, never patched line by line.
//
// The merge is monotonic and idempotent: existing keys keep their relative
// order and are updated in place, new keys are appended, and keys absent
// from the new set are retained.
type Merger struct {
	start string
	end   string
}

// NewMerger creates a merger with the given marker sentinels; empty
// sentinels select the defaults.
func NewMerger(start, end string) *Merger {
	if start == "" {
		start = domain.DefaultStartMarker
	}
	if end == "" {
		end = domain.DefaultEndMarker
	}
	return &Merger{start: start, end: end}
}

// Merge locates the marker pair in document and replaces the region content
// with the deterministic rendering of the merged entry set. Returns
// domain.ErrMarkerNotFound when the document has no region.
func (m *Merger) Merge(document string, entries []domain.IndexEntry) (string, error) {
	lines := strings.Split(document, "\n")

	startIdx, endIdx := -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case m.start:
			if startIdx == -1 {
				startIdx = i
			}
		case m.end:
			if startIdx != -1 && endIdx == -1 {
				endIdx = i
			}
		}
	}
	if startIdx == -1 || endIdx == -1 {
		return "", fmt.Errorf("%w: document lacks %q/%q pair", domain.ErrMarkerNotFound, m.start, m.end)
	}

	existing := parseEntries(lines[startIdx+1 : endIdx])
	merged := mergeEntries(existing, entries)

	out := make([]string, 0, len(lines)+len(merged))
	out = append(out, lines[:startIdx+1]...)
	for i := range merged {
		out = append(out, renderEntry(&merged[i]))
	}
	out = append(out, lines[endIdx:]...)

	return strings.Join(out, "\n"), nil
}

// AppendRegion returns the document with a fresh, empty marker region
// appended. Callers use this only when configuration opts in to creating
// regions in documents that lack one.
func (m *Merger) AppendRegion(document string) string {
	var b strings.Builder
	b.WriteString(document)
	if document != "" && !strings.HasSuffix(document, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.start)
	b.WriteString("\n")
	b.WriteString(m.end)
	b.WriteString("\n")
	return b.String()
}

// HasRegion reports whether the document contains a marker pair.
func (m *Merger) HasRegion(document string) bool {
	_, err := m.Merge(document, nil)
	return err == nil
}

// parseEntries reads the region's current entries in order. Lines that are
// not entries (blanks, leftovers from hand edits inside the region) are
// dropped: the region is machine-owned.
func parseEntries(lines []string) []domain.IndexEntry {
	var entries []domain.IndexEntry
	for _, line := range lines {
		match := entryLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}
		e := domain.IndexEntry{
			Name:        match[1],
			URL:         match[2],
			Description: match[3],
		}
		e.Key = entryKey(&e)
		entries = append(entries, e)
	}
	return entries
}

// entryKey derives the stable key for an entry: the owner/name tail of its
// URL when it has one, else the link text.
func entryKey(e *domain.IndexEntry) string {
	if e.Key != "" {
		return e.Key
	}
	trimmed := strings.TrimSuffix(e.URL, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) >= 2 && parts[len(parts)-2] != "" && parts[len(parts)-1] != "" {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return e.Name
}

// mergeEntries applies the ordered insert-or-update. Previously seen keys
// keep their position, genuinely new keys append in input order, and keys
// missing from the update survive untouched.
func mergeEntries(existing, updates []domain.IndexEntry) []domain.IndexEntry {
	index := make(map[string]int, len(existing))
	merged := make([]domain.IndexEntry, len(existing))
	copy(merged, existing)
	for i := range merged {
		index[merged[i].Key] = i
	}

	for _, u := range updates {
		u.Key = entryKey(&u)
		if pos, ok := index[u.Key]; ok {
			merged[pos] = u
			continue
		}
		index[u.Key] = len(merged)
		merged = append(merged, u)
	}
	return merged
}

// renderEntry produces the single canonical line for an entry. The format
// must stay byte-deterministic: no-op merges are detected by comparing the
// rendered output against the file content.
func renderEntry(e *domain.IndexEntry) string {
	if e.Description == "" {
		return fmt.Sprintf("- [%s](%s)", e.Name, e.URL)
	}
	return fmt.Sprintf("- [%s](%s) - %s", e.Name, e.URL, e.Description)
}
