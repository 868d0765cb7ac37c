package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

const mergerDoc = `# Awesome Tools

Some intro text.

<!-- AUTO-GENERATED-CONTENT:START -->
- [alpha](https://github.com/octo/alpha) - First tool
- [beta](https://github.com/octo/beta)
<!-- AUTO-GENERATED-CONTENT:END -->

Footer text.
`

func entry(name, fullName, description string) domain.IndexEntry {
	return domain.IndexEntry{
		Key:         fullName,
		Name:        name,
		URL:         "https://github.com/" + fullName,
		Description: description,
	}
}

func TestMerger_Merge_AppendsNewEntries(t *testing.T) {
	m := NewMerger("", "")

	merged, err := m.Merge(mergerDoc, []domain.IndexEntry{
		entry("gamma", "octo/gamma", "Third tool"),
	})
	require.NoError(t, err)

	assert.Contains(t, merged, "- [alpha](https://github.com/octo/alpha) - First tool")
	assert.Contains(t, merged, "- [beta](https://github.com/octo/beta)")
	assert.Contains(t, merged, "- [gamma](https://github.com/octo/gamma) - Third tool")

	// Text outside the markers is untouched.
	assert.Contains(t, merged, "# Awesome Tools")
	assert.Contains(t, merged, "Footer text.")
}

func TestMerger_Merge_UpdatesInPlace(t *testing.T) {
	m := NewMerger("", "")

	merged, err := m.Merge(mergerDoc, []domain.IndexEntry{
		entry("alpha", "octo/alpha", "Renamed description"),
	})
	require.NoError(t, err)

	assert.Contains(t, merged, "- [alpha](https://github.com/octo/alpha) - Renamed description")
	assert.NotContains(t, merged, "First tool")

	// The updated entry keeps its position before beta.
	alphaIdx := indexOf(t, merged, "octo/alpha")
	betaIdx := indexOf(t, merged, "octo/beta")
	assert.Less(t, alphaIdx, betaIdx)
}

func TestMerger_Merge_NeverDeletes(t *testing.T) {
	m := NewMerger("", "")

	// An empty update leaves every existing entry in place.
	merged, err := m.Merge(mergerDoc, nil)
	require.NoError(t, err)
	assert.Contains(t, merged, "octo/alpha")
	assert.Contains(t, merged, "octo/beta")
}

func TestMerger_Merge_Idempotent(t *testing.T) {
	m := NewMerger("", "")
	entries := []domain.IndexEntry{
		entry("gamma", "octo/gamma", "Third tool"),
		entry("alpha", "octo/alpha", "First tool"),
	}

	once, err := m.Merge(mergerDoc, entries)
	require.NoError(t, err)
	twice, err := m.Merge(once, entries)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestMerger_Merge_OrderScenario(t *testing.T) {
	// Region [A, B] merged with [B, C] yields [A, B, C].
	doc := "<!-- AUTO-GENERATED-CONTENT:START -->\n" +
		"- [a](https://github.com/octo/a)\n" +
		"- [b](https://github.com/octo/b)\n" +
		"<!-- AUTO-GENERATED-CONTENT:END -->"

	m := NewMerger("", "")
	merged, err := m.Merge(doc, []domain.IndexEntry{
		entry("b", "octo/b", ""),
		entry("c", "octo/c", ""),
	})
	require.NoError(t, err)

	want := "<!-- AUTO-GENERATED-CONTENT:START -->\n" +
		"- [a](https://github.com/octo/a)\n" +
		"- [b](https://github.com/octo/b)\n" +
		"- [c](https://github.com/octo/c)\n" +
		"<!-- AUTO-GENERATED-CONTENT:END -->"
	assert.Equal(t, want, merged)
}

func TestMerger_Merge_MissingMarkers(t *testing.T) {
	m := NewMerger("", "")

	_, err := m.Merge("# No markers here\n", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMarkerNotFound)

	// A start marker without an end marker is equally invalid.
	_, err = m.Merge("<!-- AUTO-GENERATED-CONTENT:START -->\n", nil)
	assert.ErrorIs(t, err, domain.ErrMarkerNotFound)
}

func TestMerger_Merge_CustomMarkers(t *testing.T) {
	m := NewMerger("<!-- INDEX:START -->", "<!-- INDEX:END -->")
	doc := "<!-- INDEX:START -->\n<!-- INDEX:END -->"

	merged, err := m.Merge(doc, []domain.IndexEntry{entry("a", "octo/a", "")})
	require.NoError(t, err)
	assert.Contains(t, merged, "- [a](https://github.com/octo/a)")
}

func TestMerger_Merge_DropsNonEntryLines(t *testing.T) {
	doc := "<!-- AUTO-GENERATED-CONTENT:START -->\n" +
		"- [a](https://github.com/octo/a)\n" +
		"\n" +
		"stray hand-written line\n" +
		"<!-- AUTO-GENERATED-CONTENT:END -->"

	m := NewMerger("", "")
	merged, err := m.Merge(doc, nil)
	require.NoError(t, err)
	assert.NotContains(t, merged, "stray hand-written line")
	assert.Contains(t, merged, "octo/a")
}

func TestMerger_AppendRegion(t *testing.T) {
	m := NewMerger("", "")

	doc := m.AppendRegion("# Fresh document")
	assert.True(t, m.HasRegion(doc))

	merged, err := m.Merge(doc, []domain.IndexEntry{entry("a", "octo/a", "")})
	require.NoError(t, err)
	assert.Contains(t, merged, "- [a](https://github.com/octo/a)")
}

func TestMerger_HasRegion(t *testing.T) {
	m := NewMerger("", "")
	assert.True(t, m.HasRegion(mergerDoc))
	assert.False(t, m.HasRegion("plain text"))
}

// indexOf returns the byte offset of substr, failing the test when absent.
func indexOf(t *testing.T, s, substr string) int {
	t.Helper()
	idx := strings.Index(s, substr)
	require.NotEqual(t, -1, idx, "expected %q in document", substr)
	return idx
}
