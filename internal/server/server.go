package server

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"homeshop/internal/config"
	"homeshop/internal/http/handlers"
	applog "homeshop/internal/log"
)

// Limits are requests per window per client IP. Zero picks the default.
type Limits struct {
	Global int // per minute, every route except assets
	Search int // per minute
	Login  int // per 10 minutes, POST /login/
}

type Options struct {
	// AccessLog receives one line per request; nil disables it.
	AccessLog io.Writer
	Limits    Limits
	// Reload re-parses templates on every render.
	Reload bool
}

func (l Limits) withDefaults() Limits {
	if l.Global <= 0 {
		l.Global = 60
	}
	if l.Search <= 0 {
		l.Search = 20
	}
	if l.Login <= 0 {
		l.Login = 5
	}
	return l
}

// NewApp builds the storefront: middleware stack, assets and routes.
func NewApp(cfg config.Config, deps *handlers.Deps, opts Options) *fiber.App {
	log := deps.Log
	limits := opts.Limits.withDefaults()

	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(opts.Reload)

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: 1 << 20, // 1 MiB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Something went wrong. Please try again."
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code < 500 {
				code, msg = fe.Code, fe.Message
				log.Security(c, "http.error", map[string]any{"code": code, "err": fe.Message})
			} else {
				log.Error(c, "server.error", err, nil)
			}
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        limits.Global,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Security(c, "rate.global.hit", nil)
			return c.SendStatus(fiber.StatusTooManyRequests)
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))

	// ---------- Static assets ----------
	app.Static("/static", cfg.StaticDir)
	app.Get("/media/*", mediaHandler(cfg.MediaDir, log))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// ---------- Pages ----------
	app.Use(deps.Context())
	authed := handlers.RequireUser(log)

	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/contacts/", deps.CategoryHandler.Contacts)
	app.Get("/search", limiter.New(limiter.Config{
		Max:        limits.Search,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
	}), deps.SearchHandler.Search)

	// Cart & orders
	app.Get("/cart/", deps.CartHandler.View)
	app.Get("/cart/add/:kind/:slug/", deps.CartHandler.Add)
	app.Get("/cart/remove/:kind/:slug/", deps.CartHandler.Remove)
	app.Post("/cart/change-qty/:kind/:slug/", deps.CartHandler.ChangeQty)
	app.Get("/checkout/", deps.OrderHandler.Checkout)
	app.Post("/checkout/", authed, deps.OrderHandler.Place)
	app.Get("/profile/", authed, deps.OrderHandler.Profile)

	// Auth routes (login throttled)
	app.Get("/login/", deps.AuthHandler.LoginForm)
	app.Post("/login/", limiter.New(limiter.Config{
		Max:        limits.Login,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Get("/registration/", deps.AuthHandler.RegistrationForm)
	app.Post("/registration/", deps.AuthHandler.Register)
	app.Post("/logout/", deps.AuthHandler.Logout)

	// Catalog catch-alls last
	app.Get("/:category/", deps.CategoryHandler.Detail)
	app.Get("/:category/:slug/", deps.ProductHandler.Detail)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}

// mediaHandler serves product images from dir, refusing anything that could
// step outside it.
func mediaHandler(dir string, log *applog.Logger) fiber.Handler {
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			log.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			log.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}
