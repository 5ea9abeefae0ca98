package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "homeshop/internal/log"
	"homeshop/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	Log          *applog.Logger
	CookieSecure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")

	sid := newSID()
	_, err := h.Auth.Login(c.UserContext(), sid, username, pass)
	if errors.Is(err, services.ErrBadCreds) {
		h.Log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid username or password", "Username": username})
	}
	if err != nil {
		return err
	}
	setSID(c, sid, h.CookieSecure)
	h.Log.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.Redirect("/")
}

func (h *AuthHandler) RegistrationForm(c *fiber.Ctx) error {
	return render(c, "registration", fiber.Map{"Form": services.RegistrationForm{}})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	form := services.RegistrationForm{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Password:  c.FormValue("password"),
		Confirm:   c.FormValue("confirm_password"),
		Phone:     c.FormValue("phone"),
		Address:   c.FormValue("address"),
	}
	sid := newSID()
	u, err := h.Auth.Register(c.UserContext(), sid, form)
	if errs, ok := fieldErrors(err); ok {
		h.Log.Security(c, "auth.register.invalid", map[string]any{"username": form.Username, "fields": errs})
		form.Password, form.Confirm = "", ""
		return render(c.Status(fiber.StatusBadRequest), "registration", fiber.Map{"Form": form, "Errors": errs})
	}
	if err != nil {
		return err
	}
	setSID(c, sid, h.CookieSecure)
	h.Log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "username": u.Username})
	flashInfo(c, "Welcome, "+u.FirstName+"! Your account is ready.")
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sidCookie); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return err
		}
	}
	clearSID(c, h.CookieSecure)
	h.Log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}
