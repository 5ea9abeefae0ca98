package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "homeshop/internal/log"
	"homeshop/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
	Log  *applog.Logger
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return render(c, "cart", nil)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	kind, slug := c.Params("kind"), c.Params("slug")
	cart, err := h.Cart.Add(c.UserContext(), RC(c).Cart, kind, slug)
	if err != nil {
		return redirectOnError(c, h.Log, "cart.add", err, "/")
	}
	h.Log.Audit(c, "cart.add", map[string]any{
		"cart_id": cart.ID, "kind": kind, "slug": slug, "total": cart.FinalPrice.String(),
	})
	flashInfo(c, "Product added to your cart")
	return c.Redirect("/cart/")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	kind, slug := c.Params("kind"), c.Params("slug")
	cart, err := h.Cart.Remove(c.UserContext(), RC(c).Cart, kind, slug)
	if err != nil {
		return redirectOnError(c, h.Log, "cart.remove", err, "/cart/")
	}
	h.Log.Audit(c, "cart.remove", map[string]any{
		"cart_id": cart.ID, "kind": kind, "slug": slug, "total": cart.FinalPrice.String(),
	})
	flashInfo(c, "Product removed from your cart")
	return c.Redirect("/cart/")
}

func (h *CartHandler) ChangeQty(c *fiber.Ctx) error {
	kind, slug := c.Params("kind"), c.Params("slug")
	raw := c.FormValue("qty")
	cart, err := h.Cart.ChangeQty(c.UserContext(), RC(c).Cart, kind, slug, raw)
	if err != nil {
		return redirectOnError(c, h.Log, "cart.change_qty", err, "/cart/")
	}
	h.Log.Audit(c, "cart.change_qty", map[string]any{
		"cart_id": cart.ID, "kind": kind, "slug": slug, "qty": raw, "total": cart.FinalPrice.String(),
	})
	flashInfo(c, "Quantity updated")
	return c.Redirect("/cart/")
}
