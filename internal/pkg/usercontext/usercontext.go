// Package usercontext carries the resolved caller identity through a request.
package usercontext

import (
	"github.com/gofiber/fiber/v2"
)

const localsKey = "scholarpress_user_context"

// UserContext is the resolved caller. The zero value is the anonymous reader:
// not logged in, level 1, no roles.
type UserContext struct {
	UserID     uint
	Username   string
	Level      int
	IsLoggedIn bool
	IsAdmin    bool
	IsCreator  bool
}

// EffectiveLevel returns the access level the caller reads at. Anonymous
// callers read at level 1.
func (uc UserContext) EffectiveLevel() int {
	if !uc.IsLoggedIn || uc.Level < 1 {
		return 1
	}
	return uc.Level
}

// SetUserContext stores the caller identity on the request.
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(localsKey, uc)
}

// GetUserContext returns the caller identity; anonymous when unset.
func GetUserContext(c *fiber.Ctx) UserContext {
	if uc, ok := c.Locals(localsKey).(UserContext); ok {
		return uc
	}
	return UserContext{}
}
