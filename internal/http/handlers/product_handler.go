package handlers

import (
	"errors"

	"qashop/internal/log"
	"qashop/internal/services"
	"qashop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// Home lists every product with its in-cart state.
func (h *ProductHandler) Home(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.list.fail", err, nil)
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "Could not load products. Please retry."})
	}
	return render(c, "home", fiber.Map{"Products": products, "InCart": stateOf(c).Cart.Map()})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if errors.Is(err, services.ErrNotFound) {
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	if err != nil {
		return err
	}
	return render(c, "product", fiber.Map{"P": p, "InCart": stateOf(c).Cart.Quantity(p.ID)})
}
