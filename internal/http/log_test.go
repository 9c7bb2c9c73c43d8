package handlers_test

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func TestLogAuthEvents(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		user, pass string
		action     string
		level      string
	}{
		{"standard_user", "wrongpass", "auth.login.fail", "warn"},
		{"locked_user", "locked123", "auth.login.locked", "warn"},
		{"standard_user", "standard123", "auth.login.success", "audit"},
	}
	for _, tc := range cases {
		cl := newClient(t, app)
		entries := captureLogs(t, func() { _ = cl.login(tc.user, tc.pass) })
		e, ok := findLog(entries, tc.action)
		if !ok {
			t.Fatalf("%s: no log entry; got %+v", tc.action, entries)
		}
		if e.Level != tc.level {
			t.Fatalf("%s: want level %s, got %s", tc.action, tc.level, e.Level)
		}
		if e.Fields["username"] != tc.user {
			t.Fatalf("%s: username field %v", tc.action, e.Fields["username"])
		}
		if _, leaked := e.Fields["password"]; leaked {
			t.Fatalf("%s: password logged", tc.action)
		}
	}
}

func TestLogCSRFFailure(t *testing.T) {
	app, _ := newTestApp(t)
	cl := newClient(t, app)
	_ = cl.csrf()

	entries := captureLogs(t, func() {
		_ = cl.post("/cart", url.Values{"action": {"add"}, "product_id": {"1"}})
	})
	e, ok := findLog(entries, "csrf.fail")
	if !ok {
		t.Fatal("csrf.fail not logged")
	}
	if e.Fields["token_present"] != false {
		t.Fatalf("unexpected fields %v", e.Fields)
	}
}

func TestLogCrossUserOrderAccess(t *testing.T) {
	app, db := newTestApp(t)
	a := insertProduct(t, db, "Product A", "10.00")

	owner := newClient(t, app)
	owner.mustLogin("standard_user", "standard123")
	tok := owner.csrf()
	addToCart(t, owner, tok, a)
	resp := owner.post("/checkout", checkoutForm(tok, "Ada", "Lovelace", "1 Analytical Way"))
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/order-confirmation?order_id=") {
		t.Fatalf("checkout failed: %d %q", resp.StatusCode, loc)
	}

	var adminID int64
	if err := db.Get(&adminID, `SELECT id FROM users WHERE username = 'admin_user'`); err != nil {
		t.Fatal(err)
	}
	other := newClient(t, app)
	other.mustLogin("admin_user", "admin123")

	var page *http.Response
	entries := captureLogs(t, func() { page = other.get(loc) })
	if page.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order: want 404, got %d", page.StatusCode)
	}
	if body := readBody(t, page); strings.Contains(body, "Ada Lovelace") {
		t.Fatal("foreign order details leaked")
	}
	e, ok := findLog(entries, "order.view.denied")
	if !ok {
		t.Fatal("order.view.denied not logged")
	}
	if e.UserID != adminID {
		t.Fatalf("want user_id %d, got %d", adminID, e.UserID)
	}

	// unknown ids look the same as foreign ones
	if resp := other.get("/order-confirmation?order_id=999999"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown order: want 404, got %d", resp.StatusCode)
	}
	if resp := other.get("/order-confirmation?order_id=abc"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bad order id: want 404, got %d", resp.StatusCode)
	}
}

func TestLogCorruptOrderShowsGenericError(t *testing.T) {
	app, db := newTestApp(t)
	a := insertProduct(t, db, "Product A", "10.00")

	cl := newClient(t, app)
	cl.mustLogin("standard_user", "standard123")
	tok := cl.csrf()
	addToCart(t, cl, tok, a)
	loc := cl.post("/checkout", checkoutForm(tok, "Ada", "Lovelace", "1 Analytical Way")).Header.Get("Location")

	if _, err := db.Exec(`UPDATE orders SET shipping_details = '{not json'`); err != nil {
		t.Fatal(err)
	}
	var page *http.Response
	entries := captureLogs(t, func() { page = cl.get(loc) })
	if page.StatusCode != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", page.StatusCode)
	}
	if body := readBody(t, page); strings.Contains(body, "not json") || strings.Contains(body, "invalid character") {
		t.Fatal("decoder error leaked to the page")
	}
	if _, ok := findLog(entries, "order.view.corrupt"); !ok {
		t.Fatal("order.view.corrupt not logged")
	}
}

func TestLogAdminAudit(t *testing.T) {
	app, db := newTestApp(t)
	a := insertProduct(t, db, "Product A", "10.00")

	admin := newClient(t, app)
	admin.mustLogin("admin_user", "admin123")
	tok := admin.csrf()

	entries := captureLogs(t, func() {
		_ = admin.post("/admin/products/"+strconv.FormatInt(a, 10)+"/stock", url.Values{"csrf_token": {tok}, "stock": {"3"}})
	})
	e, ok := findLog(entries, "admin.stock.update")
	if !ok || e.Level != "audit" {
		t.Fatalf("admin.stock.update audit missing: %+v", entries)
	}
	if e.Fields["product_id"] != float64(a) || e.Fields["qty"] != float64(3) || e.Fields["prev"] != float64(10) {
		t.Fatalf("unexpected fields %v", e.Fields)
	}

	std := newClient(t, app)
	std.mustLogin("standard_user", "standard123")
	entries = captureLogs(t, func() { _ = std.get("/admin") })
	if _, ok := findLog(entries, "access.denied.admin"); !ok {
		t.Fatal("access.denied.admin not logged")
	}
}

func TestLogCheckoutPlaced(t *testing.T) {
	app, db := newTestApp(t)
	a := insertProduct(t, db, "Product A", "10.00")

	cl := newClient(t, app)
	cl.mustLogin("standard_user", "standard123")
	tok := cl.csrf()
	addToCart(t, cl, tok, a)

	entries := captureLogs(t, func() {
		_ = cl.post("/checkout", checkoutForm(tok, "Ada", "Lovelace", "1 Analytical Way"))
	})
	e, ok := findLog(entries, "order.place")
	if !ok {
		t.Fatal("order.place not logged")
	}
	var id int64
	_ = db.Get(&id, `SELECT id FROM orders`)
	if e.Fields["order_id"] != float64(id) {
		t.Fatalf("want order_id %d, got %v", id, e.Fields["order_id"])
	}
	for _, line := range entries {
		for k, v := range line.Fields {
			if s, ok := v.(string); ok && strings.Contains(s, "4111") {
				t.Fatalf("card data logged in %s.%s", line.Action, k)
			}
		}
	}
}
