package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"qashop/internal/domain"
)

// csrfApp mounts the csrf middleware on the manager's store the same way the
// shop does, plus routes that save the session through the manager.
func csrfApp(m *Manager) *fiber.App {
	app := fiber.New()
	app.Use(m.Serialize())
	app.Use(csrf.New(csrf.Config{
		Session:    m.Store(),
		SessionKey: CSRFKey,
		KeyLookup:  "form:csrf_token",
		ContextKey: "csrf",
	}))
	app.Get("/token", func(c *fiber.Ctx) error {
		tok, _ := c.Locals("csrf").(string)
		return c.SendString(tok)
	})
	app.Post("/add", func(c *fiber.Ctx) error {
		return m.Update(c, func(st *State) error {
			st.Cart.Add(1)
			return nil
		})
	})
	app.Post("/login", func(c *fiber.Ctx) error {
		return m.Rotate(c, func(st *State) error {
			st.SetPrincipal(&domain.User{ID: 7, Username: "standard_user", Role: domain.RoleStandard})
			return nil
		})
	})
	return app
}

type jar map[string]string

func (j jar) do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	for k, v := range j {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(j, c.Name)
			continue
		}
		j[c.Name] = c.Value
	}
	return resp, body(t, resp)
}

func (j jar) post(t *testing.T, app *fiber.App, path, tok string) int {
	t.Helper()
	form := url.Values{}
	if tok != "" {
		form.Set("csrf_token", tok)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := j.do(t, app, req)
	return resp.StatusCode
}

func TestCSRFTokenLivesInSession(t *testing.T) {
	m := NewManager(Config{Expiration: time.Minute})
	app := csrfApp(m)
	j := jar{}

	_, tok := j.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil))
	if tok == "" || j[CookieName] == "" {
		t.Fatalf("token %q or session cookie missing", tok)
	}
	if _, again := j.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil)); again != tok {
		t.Fatalf("token changed within one session: %q -> %q", tok, again)
	}

	if code := j.post(t, app, "/add", "wrong"); code != fiber.StatusForbidden {
		t.Fatalf("wrong token: want 403, got %d", code)
	}
	if code := j.post(t, app, "/add", ""); code != fiber.StatusForbidden {
		t.Fatalf("missing token: want 403, got %d", code)
	}
	if code := j.post(t, app, "/add", tok); code != fiber.StatusOK {
		t.Fatalf("good token: want 200, got %d", code)
	}

	// saving State must leave the middleware's token alone
	if _, again := j.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil)); again != tok {
		t.Fatalf("Update dropped the token: %q -> %q", tok, again)
	}
}

func TestCSRFTokenSurvivesRotate(t *testing.T) {
	m := NewManager(Config{Expiration: time.Minute})
	app := csrfApp(m)
	j := jar{}

	_, tok := j.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil))
	oldSID := j[CookieName]
	if code := j.post(t, app, "/login", tok); code != fiber.StatusOK {
		t.Fatalf("login: want 200, got %d", code)
	}
	if j[CookieName] == oldSID {
		t.Fatal("session id not rotated")
	}
	if code := j.post(t, app, "/add", tok); code != fiber.StatusOK {
		t.Fatalf("token rejected after rotate: %d", code)
	}
}

func TestCSRFTokenNotSharedAcrossSessions(t *testing.T) {
	m := NewManager(Config{Expiration: time.Minute})
	app := csrfApp(m)
	a, b := jar{}, jar{}

	_, tokA := a.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil))
	_, tokB := b.do(t, app, httptest.NewRequest(http.MethodGet, "/token", nil))
	if tokA == tokB {
		t.Fatal("two sessions share a token")
	}
	if code := b.post(t, app, "/add", tokA); code != fiber.StatusForbidden {
		t.Fatalf("foreign token: want 403, got %d", code)
	}
}
