package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"qashop/internal/domain"
	"qashop/internal/repos"
	"qashop/internal/services"
	"qashop/internal/session"
)

// memdb opens a seeded in-memory database and adds two products with round
// prices: A at 10.00 and B at 25.00.
func memdb(t *testing.T) (db *sqlx.DB, productA, productB int64) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ins := func(name, price string, stock int) int64 {
		res, err := db.Exec(`INSERT INTO products(name,description,price,stock) VALUES(?,?,?,?)`, name, "test product", price, stock)
		if err != nil {
			t.Fatal(err)
		}
		id, _ := res.LastInsertId()
		return id
	}
	return db, ins("Product A", "10.00", 5), ins("Product B", "25.00", 5)
}

func userID(t *testing.T, db *sqlx.DB, username string) int64 {
	t.Helper()
	u, err := repos.NewUserRepo(db).ByUsername(context.Background(), username)
	if err != nil {
		t.Fatal(err)
	}
	return u.ID
}

// loggedIn returns a session state for standard_user.
func loggedIn(t *testing.T, db *sqlx.DB) *session.State {
	t.Helper()
	return &session.State{
		ID:       "test-session",
		UserID:   userID(t, db, "standard_user"),
		Username: "standard_user",
		Role:     domain.RoleStandard,
		Cart:     domain.NewCart(),
	}
}

func newCheckout(db *sqlx.DB, orders services.OrderWriter, enforce bool) *services.CheckoutService {
	return services.NewCheckoutService(db, repos.NewProductRepo(db), orders, repos.NewInventoryRepo(db), enforce)
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatal(err)
	}
	return n
}
