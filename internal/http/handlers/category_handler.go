package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/services"
	"homeshop/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
	Log     *applog.Logger
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	products, err := h.Catalog.Latest(c.UserContext(), services.LatestPerKind, domain.KindDishwasher)
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{"Products": products})
}

func (h *CategoryHandler) Contacts(c *fiber.Ctx) error {
	return render(c, "contacts", nil)
}

func (h *CategoryHandler) Detail(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("category"))
	if !ok {
		return notFound(c, "Page not found")
	}
	cat, kind, err := h.Catalog.Category(c.UserContext(), slug)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "Page not found")
	}
	if err != nil {
		return err
	}
	products, err := h.Catalog.ProductsInCategory(c.UserContext(), kind, 1, 50)
	if err != nil {
		return err
	}
	return render(c, "category", fiber.Map{"Category": cat, "Kind": kind, "Products": products})
}
