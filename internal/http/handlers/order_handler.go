package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/services"
)

type OrderHandler struct {
	Order *services.OrderService
	Log   *applog.Logger
}

func checkoutForm(f services.OrderForm, errs map[string]string) fiber.Map {
	return fiber.Map{"Form": f, "Errors": errs, "BuyingTypes": []domain.BuyingType{domain.BuyingSelf, domain.BuyingDelivery}}
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	if RC(c).Cart == nil {
		flashError(c, msgLoginToShop)
		return c.Redirect("/login/")
	}
	f := services.OrderForm{BuyingType: string(domain.BuyingSelf), OrderDate: time.Now().Format(time.DateOnly)}
	return render(c, "checkout", checkoutForm(f, nil))
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	rc := RC(c)
	form := services.OrderForm{
		Phone:      c.FormValue("phone"),
		Address:    c.FormValue("address"),
		BuyingType: c.FormValue("buying_type"),
		OrderDate:  c.FormValue("order_date"),
		Comment:    c.FormValue("comment"),
	}
	o, err := h.Order.Place(c.UserContext(), rc.User, rc.Cart, form)
	if errs, ok := fieldErrors(err); ok {
		h.Log.Security(c, "order.place.invalid", map[string]any{"fields": errs})
		return render(c.Status(fiber.StatusBadRequest), "checkout", checkoutForm(form, errs))
	}
	if errors.Is(err, domain.ErrNotFound) && rc.User != nil {
		h.Log.Security(c, "order.place.fail", map[string]any{"err": err.Error()})
		flashError(c, "Your cart could not be checked out")
		return c.Redirect("/cart/")
	}
	if err != nil {
		return redirectOnError(c, h.Log, "order.place", err, "/cart/")
	}
	h.Log.Audit(c, "order.place", map[string]any{
		"order_id": o.ID, "cart_id": o.CartID, "total": o.FinalPrice.String(), "items": o.TotalProducts,
	})
	flashInfo(c, "Thank you for your order!")
	return c.Redirect("/")
}

// Profile lists the customer's orders, newest first.
func (h *OrderHandler) Profile(c *fiber.Ctx) error {
	orders, err := h.Order.History(c.UserContext(), RC(c).User)
	if errors.Is(err, domain.ErrNotFound) {
		// an account without a customer profile has no orders
		return render(c, "profile", fiber.Map{"Orders": []domain.Order{}})
	}
	if err != nil {
		return err
	}
	return render(c, "profile", fiber.Map{"Orders": orders})
}
