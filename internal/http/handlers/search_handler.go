package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "homeshop/internal/log"
	"homeshop/internal/services"
	"homeshop/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
	Log     *applog.Logger
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		return render(c, "search", fiber.Map{"Q": "", "Products": []any{}, "Count": 0})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		h.Log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return render(c.Status(fiber.StatusBadRequest), "search", fiber.Map{
			"Q": "", "Products": []any{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}

	products, err := h.Catalog.Search(c.UserContext(), q, 1, 20)
	if err != nil {
		h.Log.Error(c, "search.error", err, nil)
		return render(c.Status(fiber.StatusInternalServerError), "notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}
	return render(c, "search", fiber.Map{"Q": q, "Products": products, "Count": len(products)})
}
