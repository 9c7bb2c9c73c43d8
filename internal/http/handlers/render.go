package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals(localUser); u != nil {
		data["User"] = u
		data["IsAdmin"] = stateOf(c).IsAdmin()
	}
	if tok := csrfToken(c); tok != "" {
		data["CSRFToken"] = tok
	}
	if _, ok := data["CartCount"]; !ok {
		data["CartCount"] = stateOf(c).Cart.Count()
	}
	return c.Render(tmpl, data)
}

// renderStatus is render with an explicit status code.
func renderStatus(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	c.Status(status)
	return render(c, tmpl, data)
}
