package apiv1

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/internal/pkg/analytics"
	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
	"github.com/OpenScholar/ScholarPress/internal/pkg/articles"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

func requestMeta(c *fiber.Ctx) articles.RequestMeta {
	return articles.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// GetArticles handles the public/authenticated search listing.
func (s *Server) GetArticles(c *fiber.Ctx) error {
	var req models.ArticleSearchRequest
	if err := c.QueryParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid query parameters"))
	}

	resp, err := s.articles.List(&req, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetManagedArticles lists the caller's own articles in any status.
func (s *Server) GetManagedArticles(c *fiber.Ctx) error {
	var req models.ArticleSearchRequest
	if err := c.QueryParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid query parameters"))
	}

	resp, err := s.articles.Managed(&req, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetArticle returns the hydrated article by id.
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	detail, err := s.articles.GetDetail(id, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	s.trackViewBestEffort(c, detail.ID)
	return c.JSON(detail)
}

// GetArticleBySlug returns the hydrated article by slug.
func (s *Server) GetArticleBySlug(c *fiber.Ctx) error {
	detail, err := s.articles.GetBySlug(c.Params("slug"), usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	s.trackViewBestEffort(c, detail.ID)
	return c.JSON(detail)
}

// trackViewBestEffort records a view for a successful detail read unless the
// caller opted out with track_view=false. Tracking failures never fail the
// read that triggered them.
func (s *Server) trackViewBestEffort(c *fiber.Ctx, articleID uint) {
	if !c.QueryBool("track_view", true) {
		return
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
	if _, err := s.analytics.TrackView(articleID, c.IP(), opts); err != nil {
		fiberlog.Warnf("view tracking failed for article %d: %v", articleID, err)
	}
}

// PostArticle creates an article from a full payload.
func (s *Server) PostArticle(c *fiber.Ctx) error {
	var req articles.CreateArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	detail, err := s.articles.Create(req, usercontext.GetUserContext(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// PostArticleMinimal creates a typed draft shell.
func (s *Server) PostArticleMinimal(c *fiber.Ctx) error {
	var req struct {
		ArticleTypeID uint `json:"article_type_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.ArticleTypeID == 0 {
		return respondError(c, apperr.InvalidArgumentf("article_type_id is required"))
	}

	detail, err := s.articles.CreateMinimal(req.ArticleTypeID, usercontext.GetUserContext(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// PatchArticle applies a partial update.
func (s *Server) PatchArticle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req articles.UpdateArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	detail, err := s.articles.Update(id, req, usercontext.GetUserContext(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// PostPublishArticle moves a draft to published.
func (s *Server) PostPublishArticle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	detail, err := s.articles.Publish(id, usercontext.GetUserContext(c), requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// PostSuspendArticle soft-deletes an article. Admin only.
func (s *Server) PostSuspendArticle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.articles.Suspend(id, usercontext.GetUserContext(c), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": models.STATUS_SUSPENDED})
}

// DeleteArticle removes an article entirely. Admin only.
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.articles.Delete(id, usercontext.GetUserContext(c), requestMeta(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PostArticleAuthor adds or updates one author entry.
func (s *Server) PostArticleAuthor(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in articles.AuthorInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.InvalidArgumentf("invalid request body"))
	}

	detail, err := s.articles.AddAuthor(id, in, usercontext.GetUserContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// DeleteArticleAuthor removes a user-backed author entry.
func (s *Server) DeleteArticleAuthor(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := parseIDParam(c, "userID")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.articles.RemoveAuthor(id, userID, usercontext.GetUserContext(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
