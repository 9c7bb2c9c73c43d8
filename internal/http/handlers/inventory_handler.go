package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "qashop/internal/log"
	"qashop/internal/services"
	"qashop/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// UpdateStock handles POST /admin/products/:id/stock.
func (h *InventoryHandler) UpdateStock(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("unknown product")
	}
	qty, ok := validate.Stock(c.FormValue("stock"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "stock"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid stock")
	}

	prev, err := h.Inv.UpdateStock(c.UserContext(), productID, qty)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.Security(c, "validation.fail", map[string]any{"field": "stock", "qty": qty})
		return c.Status(fiber.StatusBadRequest).SendString("Stock cannot be negative")
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).SendString("unknown product")
	case err != nil:
		applog.Error(c, "admin.stock.update.fail", err, map[string]any{"product_id": productID, "qty": qty})
		return c.Status(fiber.StatusInternalServerError).SendString("could not save stock")
	}

	applog.Audit(c, "admin.stock.update", map[string]any{"product_id": productID, "qty": qty, "prev": prev})
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"success": true, "product_id": productID, "stock": qty})
	}
	return c.Redirect("/admin")
}
