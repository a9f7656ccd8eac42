package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/OpenScholar/ScholarPress/app/repository"
	apiv1 "github.com/OpenScholar/ScholarPress/internal/api/v1"
	"github.com/OpenScholar/ScholarPress/internal/pkg/middleware"
)

// ApiRouter installs the /api/v1 surface.
type ApiRouter struct {
	server *apiv1.Server
	users  repository.UserRepository
}

// NewApiRouter creates the API route group.
func NewApiRouter(server *apiv1.Server, users repository.UserRepository) *ApiRouter {
	return &ApiRouter{server: server, users: users}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Use(middleware.ResolveUser(h.users))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ScholarPress API",
		})
	})

	v1 := api.Group("/v1")
	h.server.RegisterHandlers(v1)
}
