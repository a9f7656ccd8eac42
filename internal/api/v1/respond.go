package apiv1

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/OpenScholar/ScholarPress/internal/pkg/apperr"
)

// respondError maps service errors onto HTTP responses. The error taxonomy
// is small on purpose; anything unrecognized is a 500 with a generic body.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case apperr.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not_found", "message": err.Error(),
		})
	case apperr.IsAccessDenied(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden", "message": err.Error(),
		})
	case apperr.IsInvalidArgument(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_argument", "message": err.Error(),
		})
	case apperr.IsConflict(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "conflict", "message": err.Error(),
		})
	default:
		fiberlog.Errorf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Something went wrong",
		})
	}
}

// parseIDParam reads a positive integer route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgumentf("invalid %s parameter", name)
	}
	return uint(id), nil
}
