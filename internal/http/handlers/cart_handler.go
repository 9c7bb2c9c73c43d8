package handlers

import (
	"errors"

	applog "qashop/internal/log"
	"qashop/internal/services"
	"qashop/internal/session"
	"qashop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart     *services.CartService
	Sessions *session.Manager
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), stateOf(c).Cart)
	if err != nil {
		applog.Error(c, "cart.load", err, nil)
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": cv, "CartCount": cv.Count})
}

// Mutate handles POST /cart with action add, remove or update. Scripts get
// JSON back, plain forms are redirected to the cart page.
func (h *CartHandler) Mutate(c *fiber.Ctx) error {
	action := c.FormValue("action")
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return h.fail(c, fiber.StatusBadRequest, "Invalid product")
	}

	var qty int
	switch action {
	case "add", "remove":
	case "update":
		if qty, ok = validate.Quantity(c.FormValue("quantity")); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "quantity"})
			return h.fail(c, fiber.StatusBadRequest, "Invalid quantity")
		}
	default:
		return h.fail(c, fiber.StatusBadRequest, "Unknown action")
	}

	var count int
	err := h.Sessions.Update(c, func(st *session.State) error {
		switch action {
		case "add":
			if err := h.Cart.Add(c.UserContext(), st, productID); err != nil {
				return err
			}
		case "remove":
			h.Cart.Remove(st, productID)
		case "update":
			h.Cart.SetQuantity(st, productID, qty)
		}
		count = st.Cart.Count()
		return nil
	})
	if errors.Is(err, services.ErrNotFound) {
		return h.fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	if err != nil {
		applog.Error(c, "cart."+action+".fail", err, map[string]any{"product_id": productID})
		return h.fail(c, fiber.StatusInternalServerError, "Could not update your cart")
	}

	applog.Info(c, "cart."+action, map[string]any{"product_id": productID, "cart_count": count})
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"success": true, "cartCount": count, "action": action})
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) fail(c *fiber.Ctx, status int, msg string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
	}
	return renderStatus(c, status, "notfound", fiber.Map{"Message": msg})
}
