// Package accesscontrol derives the effective visibility restriction for a
// caller. All functions are pure filter derivations; nothing here touches
// the database.
package accesscontrol

import (
	"fmt"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// ApplyPublicList narrows an anonymous search to published, public-only
// content. Caller-supplied status/access filters are overridden, not merged.
func ApplyPublicList(req *models.ArticleSearchRequest) {
	req.Status = models.STATUS_PUBLISHED
	req.AccessLevel = models.ACCESS_PUBLIC
}

// ApplyAuthenticatedList narrows a logged-in reader's search to published
// content at or below their level. Admins keep their requested filters.
func ApplyAuthenticatedList(req *models.ArticleSearchRequest, uc usercontext.UserContext) {
	if uc.IsAdmin {
		return
	}
	req.Status = models.STATUS_PUBLISHED
	req.AccessLevel = uc.EffectiveLevel()
}

// ApplyManagedList scopes the "my articles" listing. Non-admins only see
// articles they created; a requested suspended filter is silently dropped
// because non-admins cannot query that status. Admins see everything.
func ApplyManagedList(req *models.ArticleSearchRequest, uc usercontext.UserContext) {
	if uc.IsAdmin {
		return
	}
	req.AuthorIDs = []uint{uc.UserID}
	if req.Status == models.STATUS_SUSPENDED {
		req.Status = ""
	}
}

// CheckDirectFetch decides whether the caller may read this exact article.
//
// Status failures return ErrNotFound so unpublished content does not leak
// its existence; a level mismatch on an otherwise visible article returns
// ErrAccessDenied, distinguishing "doesn't exist" from "exists but gated".
func CheckDirectFetch(article *models.Article, uc usercontext.UserContext) error {
	if uc.IsAdmin {
		return nil
	}
	// creators read their own articles in any status
	if uc.IsLoggedIn && article.CreatedBy == uc.UserID {
		return nil
	}
	if !article.IsPublished() {
		return apperr.NotFoundf("article %d", article.ID)
	}
	if article.AccessLevel > uc.EffectiveLevel() {
		if !uc.IsLoggedIn {
			return fmt.Errorf("login required for access level %d content: %w",
				article.AccessLevel, apperr.ErrAccessDenied)
		}
		return fmt.Errorf("access level %d required, caller has %d: %w",
			article.AccessLevel, uc.EffectiveLevel(), apperr.ErrAccessDenied)
	}
	return nil
}
