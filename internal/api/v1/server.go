// Package apiv1 exposes the JSON API.
package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/analytics"
	"github.com/OpenScholar/ScholarPress/internal/pkg/articles"
	"github.com/OpenScholar/ScholarPress/internal/pkg/files"
	"github.com/OpenScholar/ScholarPress/internal/pkg/middleware"
	"github.com/OpenScholar/ScholarPress/internal/pkg/quota"
)

// Server holds the service handles behind the v1 routes.
type Server struct {
	repos     *repository.Repositories
	articles  *articles.Service
	analytics *analytics.Service
	activity  *activity.Service
	files     *files.Service
	gate      *quota.Gate
}

// NewServer creates the API server.
func NewServer(
	repos *repository.Repositories,
	articleSvc *articles.Service,
	analyticsSvc *analytics.Service,
	activitySvc *activity.Service,
	fileSvc *files.Service,
	gate *quota.Gate,
) *Server {
	return &Server{
		repos:     repos,
		articles:  articleSvc,
		analytics: analyticsSvc,
		activity:  activitySvc,
		files:     fileSvc,
		gate:      gate,
	}
}

// RegisterHandlers attaches all v1 routes to the given group.
func (s *Server) RegisterHandlers(v1 fiber.Router) {
	v1.Get("/ping", s.GetPing)

	// auth
	v1.Post("/auth/register", s.PostRegister)
	v1.Post("/auth/login", s.PostLogin)
	v1.Get("/auth/me", middleware.RequireAuth(), s.GetMe)

	// articles: reads
	v1.Get("/articles", s.GetArticles)
	v1.Get("/articles/popular", s.GetPopularArticles)
	v1.Get("/articles/managed", middleware.RequireAuth(), s.GetManagedArticles)
	v1.Get("/articles/favorites", middleware.RequireAuth(), s.GetFavoriteArticles)
	v1.Get("/articles/slug/:slug", s.GetArticleBySlug)
	v1.Get("/articles/:id", s.GetArticle)

	// articles: writes
	v1.Post("/articles", middleware.RequireCreator(), s.PostArticle)
	v1.Post("/articles/minimal", middleware.RequireCreator(), s.PostArticleMinimal)
	v1.Patch("/articles/:id", middleware.RequireCreator(), s.PatchArticle)
	v1.Post("/articles/:id/publish", middleware.RequireCreator(), s.PostPublishArticle)
	v1.Post("/articles/:id/suspend", middleware.RequireAdmin(), s.PostSuspendArticle)
	v1.Delete("/articles/:id", middleware.RequireAdmin(), s.DeleteArticle)

	// authors
	v1.Post("/articles/:id/authors", middleware.RequireCreator(), s.PostArticleAuthor)
	v1.Delete("/articles/:id/authors/:userID", middleware.RequireCreator(), s.DeleteArticleAuthor)

	// engagement
	v1.Post("/articles/:id/view", s.PostArticleView)
	v1.Post("/articles/:id/share", s.PostArticleShare)
	v1.Post("/articles/:id/favorite", middleware.RequireAuth(), s.PostArticleFavorite)
	v1.Delete("/articles/:id/favorite", middleware.RequireAuth(), s.DeleteArticleFavorite)

	// files
	v1.Post("/articles/:id/files", middleware.RequireCreator(), s.PostArticleFile)
	v1.Post("/articles/:id/files/youtube", middleware.RequireCreator(), s.PostArticleYouTube)
	v1.Delete("/files/:id", middleware.RequireCreator(), s.DeleteFile)
	v1.Get("/files/:id/download", middleware.RequireAuth(), s.GetFileDownload)

	// quota
	v1.Post("/users/me/detailed-info", middleware.RequireAuth(), s.PostDetailedInfo)

	// analytics
	v1.Get("/articles/:id/analytics", middleware.RequireAuth(), s.GetArticleAnalytics)
	v1.Get("/analytics/system", middleware.RequireAdmin(), s.GetSystemAnalytics)

	// activity
	v1.Get("/users/:id/activity", middleware.RequireAuth(), s.GetUserActivity)
	v1.Get("/articles/:id/activity", middleware.RequireAdmin(), s.GetArticleActivity)
	v1.Get("/activity", middleware.RequireAdmin(), s.GetSystemActivity)

	// admin user management
	v1.Patch("/admin/users/:id", middleware.RequireAdmin(), s.PatchUser)
}

// GetPing handles the health endpoint.
func (s *Server) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}
