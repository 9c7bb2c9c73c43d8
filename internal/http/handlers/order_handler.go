package handlers

import (
	"errors"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"qashop/internal/domain"
	applog "qashop/internal/log"
	"qashop/internal/services"
	"qashop/internal/session"
	"qashop/internal/validate"
)

type OrderHandler struct {
	Cart     *services.CartService
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Sessions *session.Manager
}

// GET /checkout
func (h *OrderHandler) CheckoutForm(c *fiber.Ctx) error {
	st := stateOf(c)
	if st.Cart.Len() == 0 {
		return c.Redirect("/cart")
	}
	return h.renderCheckout(c, fiber.StatusOK, fiber.Map{"Form": domain.ShippingDetails{}})
}

// POST /checkout. Card fields on the form are never read.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	ship := domain.ShippingDetails{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Address:   c.FormValue("address"),
	}

	var orderID int64
	err := h.Sessions.Update(c, func(st *session.State) error {
		id, err := h.Checkout.Place(c.UserContext(), st, ship)
		orderID = id
		return err
	})

	var verr *services.ValidationError
	switch {
	case err == nil:
		applog.Audit(c, "order.place", map[string]any{"order_id": orderID})
		return c.Redirect("/order-confirmation?order_id=" + strconv.FormatInt(orderID, 10))
	case errors.Is(err, services.ErrNotAuthenticated):
		return c.Redirect("/login?redirect=/checkout")
	case errors.Is(err, services.ErrEmptyCart):
		return c.Redirect("/cart")
	case errors.As(err, &verr):
		applog.Security(c, "checkout.validation.fail", map[string]any{"fields": fieldNames(verr)})
		return h.renderCheckout(c, fiber.StatusBadRequest, fiber.Map{"Errors": verr.Fields, "Form": ship.Trimmed()})
	case errors.Is(err, services.ErrInsufficientStock):
		applog.Info(c, "checkout.stock.short", nil)
		return h.renderCheckout(c, fiber.StatusConflict, fiber.Map{
			"Err": "Some items are no longer available in the requested quantity.", "Form": ship.Trimmed(),
		})
	default:
		applog.Error(c, "checkout.persist.fail", err, nil)
		return h.renderCheckout(c, fiber.StatusInternalServerError, fiber.Map{
			"Err": "We could not place your order. Please try again.", "Form": ship.Trimmed(),
		})
	}
}

func (h *OrderHandler) renderCheckout(c *fiber.Ctx, status int, data fiber.Map) error {
	cv, err := h.Cart.View(c.UserContext(), stateOf(c).Cart)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	data["Cart"] = cv
	return renderStatus(c, status, "checkout", data)
}

// GET /order-confirmation?order_id=
func (h *OrderHandler) Confirmation(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Query("order_id"))
	if !ok {
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Order not found"})
	}

	detail, err := h.Orders.Confirmation(c.UserContext(), oid, stateOf(c).UserID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		applog.Security(c, "order.view.denied", map[string]any{"order_id": oid})
		return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Order not found"})
	case errors.Is(err, services.ErrDataIntegrity):
		applog.Error(c, "order.view.corrupt", err, map[string]any{"order_id": oid})
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "This order could not be displayed"})
	case err != nil:
		return err
	}
	return render(c, "order_confirmation", fiber.Map{"Order": detail})
}

func fieldNames(verr *services.ValidationError) []string {
	out := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
