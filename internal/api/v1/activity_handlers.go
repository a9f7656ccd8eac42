package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OpenScholar/ScholarPress/internal/pkg/activity"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

func readFilter(c *fiber.Ctx) activity.ReadFilter {
	return activity.ReadFilter{
		Days:       c.QueryInt("days", 0),
		Limit:      c.QueryInt("limit", 0),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
}

// GetUserActivity returns a user's history; self-service unless admin.
func (s *Server) GetUserActivity(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	entries, err := s.activity.ByUser(usercontext.GetUserContext(c), id, readFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": entries})
}

// GetArticleActivity returns an article's history. Admin only.
func (s *Server) GetArticleActivity(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	entries, err := s.activity.ByArticle(usercontext.GetUserContext(c), id, readFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": entries})
}

// GetSystemActivity returns platform-wide history. Admin only.
func (s *Server) GetSystemActivity(c *fiber.Ctx) error {
	entries, err := s.activity.System(usercontext.GetUserContext(c), readFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": entries})
}
