package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepository_Owner(t *testing.T) {
	assert.Equal(t, "octo", (&Repository{FullName: "octo/alpha"}).Owner())
	assert.Empty(t, (&Repository{FullName: "alpha"}).Owner())
}

func TestRepository_Validate(t *testing.T) {
	assert.NoError(t, (&Repository{FullName: "octo/alpha"}).Validate())
	assert.ErrorIs(t, (&Repository{}).Validate(), ErrInvalidInput)
	assert.ErrorIs(t, (&Repository{FullName: "alpha"}).Validate(), ErrInvalidInput)
}

func TestRepository_Entry(t *testing.T) {
	repo := &Repository{
		FullName:    "octo/alpha",
		Name:        "alpha",
		Description: "First tool",
		URL:         "https://github.com/octo/alpha",
	}

	entry := repo.Entry()
	assert.Equal(t, "octo/alpha", entry.Key)
	assert.Equal(t, "alpha", entry.Name)
	assert.Equal(t, "https://github.com/octo/alpha", entry.URL)
	assert.Equal(t, "First tool", entry.Description)
}
