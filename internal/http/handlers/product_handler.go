package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"homeshop/internal/domain"
	applog "homeshop/internal/log"
	"homeshop/internal/services"
	"homeshop/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Log     *applog.Logger
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	cat, ok1 := validate.Slug(c.Params("category"))
	slug, ok2 := validate.Slug(c.Params("slug"))
	if !ok1 || !ok2 {
		return notFound(c, "This item is no longer available")
	}
	p, err := h.Catalog.Product(c.UserContext(), cat, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "This item is no longer available")
	}
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{"Product": p, "Kind": p.Info()})
}
