package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"qashop/internal/config"
	"qashop/internal/http/handlers"
	"qashop/internal/repos"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBDSN:          ":memory:",
		MediaDir:       t.TempDir(),
		TemplatesDir:   "../../web/templates",
		SessionTTL:     time.Hour,
		RateLimit:      10000,
		LoginRateLimit: 1000,
	}
}

func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	return newTestAppWith(t, testConfig(t))
}

func newTestAppWith(t *testing.T, cfg config.Config) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return handlers.NewApp(cfg, db), db
}

// insertProduct adds a product with a known price and returns its id.
func insertProduct(t *testing.T, db *sqlx.DB, name, price string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO products(name,description,price,stock) VALUES(?,?,?,?)`, name, "test", price, 10)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := res.LastInsertId()
	return id
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatal(err)
	}
	return n
}

// client is a cookie-keeping browser stand-in.
type client struct {
	t   *testing.T
	app *fiber.App

	mu      sync.Mutex
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (cl *client) do(req *http.Request) *http.Response {
	cl.t.Helper()
	cl.mu.Lock()
	for name, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	cl.mu.Unlock()

	resp, err := cl.app.Test(req, -1)
	if err != nil {
		cl.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	for _, c := range resp.Cookies() {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now()))
		if c.Value == "" || expired {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	return resp
}

func (cl *client) get(path string) *http.Response {
	cl.t.Helper()
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) *http.Response {
	cl.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// postXHR posts like the catalog script does and decodes the JSON answer.
func (cl *client) postXHR(path string, form url.Values) (*http.Response, map[string]any) {
	cl.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp := cl.do(req)
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (cl *client) session() string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.cookies["session_id"]
}

var csrfRe = regexp.MustCompile(`<meta name="csrf-token" content="([0-9a-f-]+)">`)

// csrf loads a page and returns the token it embeds for scripts and forms.
func (cl *client) csrf() string {
	cl.t.Helper()
	body := readBody(cl.t, cl.get("/cart"))
	m := csrfRe.FindStringSubmatch(body)
	if m == nil {
		cl.t.Fatalf("csrf token not found in page")
	}
	return m[1]
}

func (cl *client) login(username, password string) *http.Response {
	cl.t.Helper()
	return cl.post("/login", url.Values{
		"csrf_token": {cl.csrf()},
		"username":   {username},
		"password":   {password},
	})
}

func (cl *client) mustLogin(username, password string) {
	cl.t.Helper()
	if resp := cl.login(username, password); resp.StatusCode != http.StatusFound {
		cl.t.Fatalf("login %s: want 302, got %d", username, resp.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs collects the JSON log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
