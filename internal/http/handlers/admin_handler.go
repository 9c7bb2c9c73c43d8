package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	applog "qashop/internal/log"
	"qashop/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Inv     *services.InventoryService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return h.renderDashboard(c, fiber.StatusOK, fiber.Map{})
}

func (h *AdminHandler) renderDashboard(c *fiber.Ctx, status int, data fiber.Map) error {
	products, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "Could not load products"})
	}
	orders, err := h.Orders.Latest(c.UserContext(), 100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return renderStatus(c, fiber.StatusInternalServerError, "notfound", fiber.Map{"Message": "Could not load orders"})
	}
	data["Products"] = products
	data["Orders"] = orders
	if _, ok := data["Form"]; !ok {
		data["Form"] = services.ProductInput{}
	}
	return renderStatus(c, status, "admin", data)
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	in := services.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Stock:       c.FormValue("stock"),
	}

	var upload *services.Upload
	if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
		ct, err := sniffContentType(fh)
		if err != nil {
			return err
		}
		upload = &services.Upload{
			ContentType: ct,
			Size:        fh.Size,
			Save:        func(dst string) error { return c.SaveFile(fh, dst) },
		}
	}

	id, err := h.Inv.CreateProduct(c.UserContext(), in, upload)
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		applog.Security(c, "validation.fail", map[string]any{"fields": fieldNames(verr)})
		return h.renderDashboard(c, fiber.StatusBadRequest, fiber.Map{"Errors": verr.Fields, "Form": in})
	}
	if err != nil {
		applog.Error(c, "admin.product.create.fail", err, nil)
		return h.renderDashboard(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not save the product", "Form": in})
	}

	applog.Audit(c, "admin.product.create", map[string]any{"product_id": id, "with_image": upload != nil})
	return c.Redirect("/admin")
}

// sniffContentType looks at the file bytes instead of the client's header.
func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
