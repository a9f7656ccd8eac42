package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Author entry kinds. A row is either backed by a platform user or carries
// free-text author fields, never both.
const (
	AUTHOR_KIND_USER = "user"
	AUTHOR_KIND_TEXT = "text"
)

// ArticleAuthor links an article to one ordered author. The (article_id,
// user_id) pair is unique when user_id is present; text-backed rows
// (user_id NULL) may repeat freely.
type ArticleAuthor struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	ArticleID         uint    `gorm:"uniqueIndex:ux_article_authors_user;index" json:"article_id"`
	UserID            *uint   `gorm:"uniqueIndex:ux_article_authors_user" json:"user_id"`
	User              *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role              string  `gorm:"type:varchar(50);default:'co-author'" json:"role"`
	AuthorOrder       int     `gorm:"default:99" json:"author_order"`
	AuthorName        *string `gorm:"type:varchar(255)" json:"author_name"`
	AuthorAffiliation *string `gorm:"type:varchar(255)" json:"author_affiliation"`
	AuthorEmail       *string `gorm:"type:varchar(255)" json:"author_email"`
	AddedBy           *uint   `json:"added_by"`
	AddedAt           time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// BeforeSave rejects rows that mix the two representations or carry neither.
func (a *ArticleAuthor) BeforeSave(tx *gorm.DB) error {
	hasUser := a.UserID != nil
	hasText := a.AuthorName != nil && *a.AuthorName != ""
	if hasUser && hasText {
		return errors.New("article author must be user-backed or text-backed, not both")
	}
	if !hasUser && !hasText {
		return errors.New("article author needs either user_id or author_name")
	}
	return nil
}

// IsUserBacked reports whether the row references a platform user.
func (a *ArticleAuthor) IsUserBacked() bool {
	return a.UserID != nil
}

// AuthorEntry is the hydrated author representation: the tagged-union view of
// an ArticleAuthor row with the display fields already resolved.
type AuthorEntry struct {
	ID          uint   `json:"id"`
	Kind        string `json:"type"`
	Role        string `json:"role"`
	AuthorOrder int    `json:"author_order"`
	DisplayName string `json:"display_name"`
	Identifier  string `json:"identifier"`
	// user-backed fields
	UserID   *uint  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	// text-backed fields
	AuthorName        string `json:"author_name,omitempty"`
	AuthorAffiliation string `json:"author_affiliation,omitempty"`
	AuthorEmail       string `json:"author_email,omitempty"`
}

// Entry resolves the row into its tagged-union form. User must be preloaded
// for user-backed rows.
func (a *ArticleAuthor) Entry() AuthorEntry {
	e := AuthorEntry{
		ID:          a.ID,
		Role:        a.Role,
		AuthorOrder: a.AuthorOrder,
	}

	if a.IsUserBacked() {
		e.Kind = AUTHOR_KIND_USER
		e.UserID = a.UserID
		if a.User != nil {
			e.Username = a.User.Username
			e.DisplayName = a.User.DisplayName()
			e.Identifier = a.User.Username
		}
		return e
	}

	e.Kind = AUTHOR_KIND_TEXT
	if a.AuthorName != nil {
		e.AuthorName = *a.AuthorName
		e.DisplayName = *a.AuthorName
	}
	if a.AuthorAffiliation != nil {
		e.AuthorAffiliation = *a.AuthorAffiliation
	}
	if a.AuthorEmail != nil {
		e.AuthorEmail = *a.AuthorEmail
	}
	// identifier preference: email, affiliation, then name
	switch {
	case e.AuthorEmail != "":
		e.Identifier = e.AuthorEmail
	case e.AuthorAffiliation != "":
		e.Identifier = e.AuthorAffiliation
	default:
		e.Identifier = e.AuthorName
	}
	return e
}
