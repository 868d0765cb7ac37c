package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRule_Matches(t *testing.T) {
	repo := &Repository{
		FullName:    "octo/cli-tool",
		Name:        "cli-tool",
		Description: "A Command Line helper",
	}

	t.Run("exact full name", func(t *testing.T) {
		rule := &ClassifyRule{Repo: "octo/cli-tool", Category: "tools"}
		assert.True(t, rule.Matches(repo))
	})

	t.Run("bare name", func(t *testing.T) {
		rule := &ClassifyRule{Repo: "cli-tool", Category: "tools"}
		assert.True(t, rule.Matches(repo))
	})

	t.Run("keyword in name", func(t *testing.T) {
		rule := &ClassifyRule{Keywords: []string{"cli"}, Category: "tools"}
		assert.True(t, rule.Matches(repo))
	})

	t.Run("keyword case-insensitive in description", func(t *testing.T) {
		rule := &ClassifyRule{Keywords: []string{"command line"}, Category: "tools"}
		assert.True(t, rule.Matches(repo))
	})

	t.Run("no match", func(t *testing.T) {
		rule := &ClassifyRule{Keywords: []string{"library"}, Category: "libs"}
		assert.False(t, rule.Matches(repo))
	})

	t.Run("empty rule matches nothing", func(t *testing.T) {
		rule := &ClassifyRule{Category: "tools"}
		assert.False(t, rule.Matches(repo))
	})

	t.Run("name rule ignores keywords", func(t *testing.T) {
		rule := &ClassifyRule{Repo: "other/repo", Keywords: []string{"cli"}, Category: "tools"}
		assert.False(t, rule.Matches(repo))
	})
}

func TestClassify_FirstMatchWins(t *testing.T) {
	repo := &Repository{
		FullName:    "octo/cli-tool",
		Name:        "cli-tool",
		Description: "command line helper",
	}
	rules := []ClassifyRule{
		{Repo: "octo/cli-tool", Category: "pinned"},
		{Keywords: []string{"cli"}, Category: "tools"},
	}

	assert.Equal(t, "pinned", Classify(repo, rules, "misc"))
}

func TestClassify_FallsBack(t *testing.T) {
	repo := &Repository{FullName: "octo/enigma", Name: "enigma"}

	assert.Equal(t, "misc", Classify(repo, nil, "misc"))
	assert.Equal(t, DefaultCategory, Classify(repo, nil, ""))
}

func TestCategory_Validate(t *testing.T) {
	valid := &Category{Name: "tools", DocumentPath: "/idx/README.md"}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, (&Category{DocumentPath: "/idx/README.md"}).Validate(), ErrInvalidInput)
	assert.ErrorIs(t, (&Category{Name: "tools"}).Validate(), ErrInvalidInput)
}

func TestCategory_DisplayLabel(t *testing.T) {
	assert.Equal(t, "Tools", (&Category{Name: "tools", Label: "Tools"}).DisplayLabel())
	assert.Equal(t, "tools", (&Category{Name: "tools"}).DisplayLabel())
}
