// Package middleware resolves caller identity and enforces route-level roles.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/OpenScholar/ScholarPress/app/models"
	"github.com/OpenScholar/ScholarPress/app/repository"
	"github.com/OpenScholar/ScholarPress/internal/pkg/usercontext"
)

// ResolveUser resolves an optional bearer token into the request's user
// context. Requests without a token pass through as anonymous; only a token
// that fails lookup is rejected.
func ResolveUser(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Next()
		}

		user, err := users.GetByTokenHash(models.HashAPIToken(token))
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unauthorized", "message": "Invalid API token",
				})
			}
			fiberlog.Errorf("token lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error", "message": "Token verification failed",
			})
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Username,
			Level:      user.Level,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin,
			IsCreator:  user.IsCreator,
		})
		return c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.GetUserContext(c).IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Authentication required",
			})
		}
		return c.Next()
	}
}

// RequireAdmin rejects non-admin requests.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Authentication required",
			})
		}
		if !uc.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden", "message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// RequireCreator rejects callers without the creator or admin role.
func RequireCreator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Authentication required",
			})
		}
		if !uc.IsCreator && !uc.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden", "message": "Creator access required",
			})
		}
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get("X-API-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
