package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/services"
)

const rcKey = "rc"

// RequestContext is what every page needs to know about the visitor. It is
// built once per request by Deps.Context.
type RequestContext struct {
	SID        string
	User       *domain.User
	Cart       *domain.Cart
	Categories []domain.CategoryCount
}

// Context resolves the session user, their active cart and the sidebar
// categories, and stores them in c.Locals. Asset and health routes skip it.
func (d *Deps) Context() fiber.Handler {
	return contextMiddleware(d.Auth, d.Cart, d.Catalog, d.Log)
}

func contextMiddleware(auth *services.AuthService, carts *services.CartService, catalog *services.CatalogService, log *applog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Path()
		if strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") || p == "/healthz" {
			return c.Next()
		}
		ctx := c.UserContext()
		rc := &RequestContext{SID: c.Cookies(sidCookie)}

		if rc.SID != "" {
			u, err := auth.CurrentUser(ctx, rc.SID)
			switch {
			case err == nil:
				rc.User = u
				c.Locals("user", u)
				c.Locals("uid", u.ID)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}
		cart, err := carts.Resolve(ctx, rc.User)
		if err != nil {
			log.Error(c, "cart.resolve.fail", err, nil)
			return err
		}
		rc.Cart = cart

		if rc.Categories, err = catalog.Categories(ctx); err != nil {
			return err
		}
		c.Locals(rcKey, rc)
		return c.Next()
	}
}

// RC returns the request context, or an empty one outside the middleware.
func RC(c *fiber.Ctx) *RequestContext {
	if rc, ok := c.Locals(rcKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{SID: c.Cookies(sidCookie)}
}
