package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

func TestArticleAuthorBeforeSaveExclusivity(t *testing.T) {
	both := ArticleAuthor{UserID: uintPtr(1), AuthorName: strPtr("Jane Roe")}
	assert.Error(t, both.BeforeSave(nil))

	neither := ArticleAuthor{}
	assert.Error(t, neither.BeforeSave(nil))

	userBacked := ArticleAuthor{UserID: uintPtr(1)}
	assert.NoError(t, userBacked.BeforeSave(nil))

	textBacked := ArticleAuthor{AuthorName: strPtr("Jane Roe")}
	assert.NoError(t, textBacked.BeforeSave(nil))
}

func TestAuthorEntryUserBacked(t *testing.T) {
	row := ArticleAuthor{
		ID:          4,
		UserID:      uintPtr(7),
		User:        &User{Username: "jroe", FirstName: "Jane", LastName: "Roe"},
		Role:        "lead",
		AuthorOrder: 1,
	}
	e := row.Entry()

	assert.Equal(t, AUTHOR_KIND_USER, e.Kind)
	require.NotNil(t, e.UserID)
	assert.Equal(t, uint(7), *e.UserID)
	assert.Equal(t, "jroe", e.Username)
	assert.Equal(t, "jroe", e.Identifier)
	assert.Empty(t, e.AuthorName)
	assert.Empty(t, e.AuthorEmail)
}

func TestAuthorEntryIdentifierPreference(t *testing.T) {
	full := ArticleAuthor{
		AuthorName:        strPtr("Jane Roe"),
		AuthorAffiliation: strPtr("Example Institute"),
		AuthorEmail:       strPtr("jane@example.org"),
	}
	assert.Equal(t, "jane@example.org", full.Entry().Identifier)

	noEmail := ArticleAuthor{
		AuthorName:        strPtr("Jane Roe"),
		AuthorAffiliation: strPtr("Example Institute"),
	}
	assert.Equal(t, "Example Institute", noEmail.Entry().Identifier)

	nameOnly := ArticleAuthor{AuthorName: strPtr("Jane Roe")}
	e := nameOnly.Entry()
	assert.Equal(t, AUTHOR_KIND_TEXT, e.Kind)
	assert.Equal(t, "Jane Roe", e.Identifier)
	assert.Equal(t, "Jane Roe", e.DisplayName)
	assert.Nil(t, e.UserID)
}
