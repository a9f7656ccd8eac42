package articles

import (
	"fmt"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/internal/pkg/accesscontrol"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// List runs a visibility-scoped search: anonymous callers see published
// public content, logged-in callers see published content at their level,
// admins see what they asked for.
func (s *Service) List(req *models.ArticleSearchRequest, uc usercontext.UserContext) (*models.SearchResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if uc.IsLoggedIn {
		accesscontrol.ApplyAuthenticatedList(req, uc)
	} else {
		accesscontrol.ApplyPublicList(req)
	}
	return s.search(req, uc)
}

// Managed lists the caller's own articles in any status. A non-admin asking
// for status=suspended has the filter dropped, not rejected.
func (s *Service) Managed(req *models.ArticleSearchRequest, uc usercontext.UserContext) (*models.SearchResponse, error) {
	if !uc.IsLoggedIn {
		return nil, fmt.Errorf("managed listing: %w", apperr.ErrAccessDenied)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	accesscontrol.ApplyManagedList(req, uc)
	return s.search(req, uc)
}

// search executes the query and projects rows into list items. The caller's
// favorite set is fetched once and applied by membership, not per row.
func (s *Service) search(req *models.ArticleSearchRequest, uc usercontext.UserContext) (*models.SearchResponse, error) {
	rows, total, err := s.repos.Article.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}

	var favorites map[uint]bool
	if uc.IsLoggedIn && len(rows) > 0 {
		ids, err := s.repos.Analytics.FavoriteArticleIDs(uc.UserID)
		if err != nil {
			return nil, fmt.Errorf("load favorites: %w", err)
		}
		favorites = make(map[uint]bool, len(ids))
		for _, id := range ids {
			favorites[id] = true
		}
	}

	items := make([]models.ArticleListItem, 0, len(rows))
	for i := range rows {
		item := rows[i].ListItem()
		item.IsFavorite = favorites[item.ID]
		items = append(items, item)
	}

	resp := models.NewSearchResponse(items, total, req.Page, req.PageSize)
	switch {
	case uc.IsAdmin:
		resp.UserRole = "admin"
	case uc.IsLoggedIn:
		resp.UserRole = "user"
	}
	return resp, nil
}
