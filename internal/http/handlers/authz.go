package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "homeshop/internal/log"
)

// RequireUser enforces that a user is logged in; otherwise redirect to login.
// It must run after Deps.Context.
func RequireUser(log *applog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if RC(c).User == nil {
			log.Security(c, "access.denied.anonymous", nil)
			flashError(c, "Please log in first")
			return c.Redirect("/login/")
		}
		return c.Next()
	}
}
