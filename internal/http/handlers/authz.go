package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"

	applog "qashop/internal/log"
	"qashop/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

// Locals keys set by SessionContext and CSRF.
const (
	localState     = "session"
	localUser      = "user"
	localCSRFToken = "CSRFToken"
)

// SessionContext loads the session once per request and exposes the
// principal to handlers and templates. It runs after CSRF.
func SessionContext(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := sessions.Load(c)
		if err != nil {
			return err
		}
		c.Locals(localState, st)
		if st.IsAuthenticated() {
			p := st.Principal()
			c.Locals(localUser, &p)
			c.Locals(applog.LocalUserID, st.UserID)
		}
		return c.Next()
	}
}

// stateOf returns the session snapshot loaded by SessionContext. Mutations
// must go through session.Manager.Update instead.
func stateOf(c *fiber.Ctx) *session.State {
	if st, ok := c.Locals(localState).(*session.State); ok {
		return st
	}
	return &session.State{}
}

// CSRF keeps one token per session, stored in the session itself, and
// rejects state-changing requests whose csrf_token form field (or
// X-CSRF-Token header) does not match it. It runs before any handler
// touches state and puts the token in locals for templates.
func CSRF(sessions *session.Manager, secure bool) fiber.Handler {
	fromForm := csrf.CsrfFromForm("csrf_token")
	fromHeader := csrf.CsrfFromHeader("X-CSRF-Token")
	return csrf.New(csrf.Config{
		Session:        sessions.Store(),
		SessionKey:     session.CSRFKey,
		KeyLookup:      "form:csrf_token",
		CookieName:     "csrf_",
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		ContextKey:     localCSRFToken,
		KeyGenerator:   newCSRFToken,
		Extractor: func(c *fiber.Ctx) (string, error) {
			if tok, err := fromForm(c); err == nil {
				return tok, nil
			}
			return fromHeader(c)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			present := c.FormValue("csrf_token") != "" || c.Get("X-CSRF-Token") != ""
			applog.Security(c, "csrf.fail", map[string]any{"token_present": present, "reason": err.Error()})
			if wantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Invalid request"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Invalid request"})
		},
	})
}

// newCSRFToken mints 32 random bytes, hex-encoded. The middleware's default
// UUID carries only 122 random bits.
func newCSRFToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b) // never fails since Go 1.24
	return hex.EncodeToString(b)
}

// csrfToken is the token the CSRF middleware bound to this request.
func csrfToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(localCSRFToken).(string)
	return tok
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !stateOf(c).IsAuthenticated() {
			if c.Method() == fiber.MethodGet {
				return c.Redirect("/login?redirect=" + url.QueryEscape(c.OriginalURL()))
			}
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := stateOf(c)
		if !st.IsAuthenticated() {
			return c.Redirect("/login")
		}
		if !st.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": string(st.Role)})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}

// wantsJSON reports whether the client is a script rather than a form post.
func wantsJSON(c *fiber.Ctx) bool {
	if strings.EqualFold(c.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
