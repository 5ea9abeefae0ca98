package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
)

const msgLoginToShop = "Please log in or register to add products to your cart"

// redirectOnError turns a domain error from a cart or checkout action into a
// flash message plus a redirect. Unknown errors go to the app ErrorHandler.
func redirectOnError(c *fiber.Ctx, log *applog.Logger, action string, err error, back string) error {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		log.Security(c, action+".auth_required", nil)
		flashError(c, msgLoginToShop)
		return c.Redirect("/")
	case errors.Is(err, domain.ErrNotFound):
		log.Security(c, action+".not_found", map[string]any{"err": err.Error()})
		flashError(c, "That product is not available")
		return c.Redirect(back)
	case errors.Is(err, domain.ErrInvalidInput):
		log.Security(c, action+".invalid", map[string]any{"err": err.Error()})
		flashError(c, "Enter a quantity between 0 and 999")
		return c.Redirect(back)
	}
	return err
}

// fieldErrors exposes a ValidationError's messages to templates.
func fieldErrors(err error) (map[string]string, bool) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}
