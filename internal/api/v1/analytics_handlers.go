package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OpenScholar/ScholarPress/internal/pkg/analytics"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// PostArticleView records a view event. Always 200 for valid articles; an
// invalid client IP is counted as "not tracked", never an error.
func (s *Server) PostArticleView(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	uc := usercontext.GetUserContext(c)
	opts := analytics.ViewOptions{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
		SessionID: c.Get("X-Session-ID"),
	}
	if uc.IsLoggedIn {
		userID := uc.UserID
		opts.UserID = &userID
	}

	tracked, err := s.analytics.TrackView(id, c.IP(), opts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tracked": tracked})
}

// PostArticleShare records a share event for a platform.
func (s *Server) PostArticleShare(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Platform string `json:"platform"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	if err := s.analytics.TrackShare(id, req.Platform, usercontext.GetUserContext(c), c.IP()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"shared": true})
}

// PostArticleFavorite bookmarks the article for the caller.
func (s *Server) PostArticleFavorite(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	created, err := s.analytics.AddFavorite(id, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"favorited": true, "created": created})
}

// DeleteArticleFavorite removes the bookmark.
func (s *Server) DeleteArticleFavorite(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	removed, err := s.analytics.RemoveFavorite(id, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"favorited": false, "removed": removed})
}

// GetFavoriteArticles lists the caller's bookmarks.
func (s *Server) GetFavoriteArticles(c *fiber.Ctx) error {
	resp, err := s.analytics.FavoriteArticles(
		usercontext.GetUserContext(c),
		c.QueryInt("page", 1),
		c.QueryInt("page_size", 0),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetPopularArticles returns the most-viewed public articles.
func (s *Server) GetPopularArticles(c *fiber.Ctx) error {
	items, err := s.analytics.PopularArticles(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// GetArticleAnalytics returns the per-article snapshot. Owner or admin.
func (s *Server) GetArticleAnalytics(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	stats, err := s.analytics.ArticleAnalytics(id, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetSystemAnalytics returns the platform snapshot. Admin only.
func (s *Server) GetSystemAnalytics(c *fiber.Ctx) error {
	stats, err := s.analytics.SystemAnalytics(usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
