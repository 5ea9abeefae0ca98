package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	rc := RC(c)
	if rc.User != nil {
		data["User"] = rc.User
	}
	if _, ok := data["Cart"]; !ok && rc.Cart != nil {
		data["Cart"] = rc.Cart
	}
	data["Categories"] = rc.Categories
	if f := popFlash(c); f != nil {
		data["Flash"] = f
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		// first visit: the middleware only sets the cookie on its way out
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return render(c.Status(fiber.StatusNotFound), "notfound", fiber.Map{"Message": msg})
}
