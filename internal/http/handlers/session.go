package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	sidCookie   = "sid"
	flashCookie = "flash"
)

// newSID returns a fresh session id. Login and registration always bind a new
// one so an id chosen before authentication is never reused after it.
func newSID() string {
	return uuid.NewString()
}

func setSID(c *fiber.Ctx, sid string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}

func clearSID(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind string // info | error
	Text string
}

func setFlash(c *fiber.Ctx, kind, text string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + text),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   c.Secure(),
	})
}

// popFlash reads and expires the pending flash message.
func popFlash(c *fiber.Ctx) *Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	v, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, text, ok := strings.Cut(v, "|")
	if !ok || (kind != "info" && kind != "error") || text == "" {
		return nil
	}
	return &Flash{Kind: kind, Text: text}
}

func flashInfo(c *fiber.Ctx, text string)  { setFlash(c, "info", text) }
func flashError(c *fiber.Ctx, text string) { setFlash(c, "error", text) }
