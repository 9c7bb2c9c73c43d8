package handlers

import (
	"errors"
	"strings"

	"qashop/internal/log"
	"qashop/internal/services"
	"qashop/internal/session"
	"qashop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Sessions *session.Manager
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if stateOf(c).IsAuthenticated() {
		return c.Redirect(localRedirect(c.Query("redirect")))
	}
	return render(c, "login", fiber.Map{"Err": "", "Redirect": c.Query("redirect")})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username, ok := validate.Username(c.FormValue("username"))
	pass := c.FormValue("password")
	redirect := c.FormValue("redirect")
	if !ok || pass == "" {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return h.loginError(c, fiber.StatusUnauthorized, "Invalid credentials", redirect)
	}

	var role string
	err := h.Sessions.Rotate(c, func(st *session.State) error {
		r, err := h.Auth.Login(c.UserContext(), st, username, pass)
		role = string(r)
		return err
	})
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return h.loginError(c, fiber.StatusUnauthorized, "Invalid credentials", redirect)
	case errors.Is(err, services.ErrAccountLocked):
		log.Security(c, "auth.login.locked", map[string]any{"username": username})
		return h.loginError(c, fiber.StatusForbidden, "Account is locked", redirect)
	case err != nil:
		return err
	}

	log.Audit(c, "auth.login.success", map[string]any{"username": username, "role": role})
	return c.Redirect(localRedirect(redirect))
}

func (h *AuthHandler) loginError(c *fiber.Ctx, status int, msg, redirect string) error {
	return renderStatus(c, status, "login", fiber.Map{"Err": msg, "Redirect": redirect})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.Destroy(c); err != nil {
		return err
	}
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

// localRedirect only follows same-site paths.
func localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}
