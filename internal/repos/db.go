package repos

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// Seed accounts; every fresh database gets these.
var seedAccounts = []struct {
	Username, Password, Role string
}{
	{"standard_user", "standard123", "standard"},
	{"locked_user", "locked123", "locked"},
	{"admin_user", "admin123", "admin"},
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	// Each connection to ":memory:" is a separate database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo catalog if DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

// withPragmas applies per-connection pragmas through the modernc DSN.
func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Users
CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  user_type TEXT NOT NULL CHECK (user_type IN ('standard','locked','admin')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL CHECK (length(name) <= 50),
  description TEXT NOT NULL DEFAULT '' CHECK (length(description) <= 150),
  price NUMERIC NOT NULL CHECK (price > 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  image_path TEXT NOT NULL DEFAULT 'images/placeholder.svg',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id),
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  shipping_details TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO products(name,description,price,stock,image_path) VALUES
	  ('Wireless Headphones','High-quality wireless headphones with noise cancellation and 20-hour battery life.',199.99,50,'images/placeholder.svg'),
	  ('Smart Watch','Feature-rich smartwatch with heart rate monitoring, GPS, and water resistance.',299.99,30,'images/placeholder.svg'),
	  ('Laptop Backpack','Durable laptop backpack with multiple compartments and USB charging port.',49.99,100,'images/placeholder.svg'),
	  ('Coffee Maker','Programmable coffee maker with thermal carafe and 12-cup capacity.',79.99,25,'images/placeholder.svg'),
	  ('Fitness Tracker','Water-resistant fitness tracker with sleep monitoring and smartphone notifications.',89.99,75,'images/placeholder.svg'),
	  ('Bluetooth Speaker','Portable Bluetooth speaker with 360-degree sound and 12-hour battery life.',129.99,40,'images/placeholder.svg'),
	  ('Mechanical Keyboard','RGB mechanical gaming keyboard with customizable keys and wrist rest.',149.99,35,'images/placeholder.svg'),
	  ('Wireless Mouse','Ergonomic wireless mouse with precision tracking and long battery life.',39.99,60,'images/placeholder.svg'),
	  ('Power Bank','High-capacity power bank with fast charging for phones and tablets.',59.99,45,'images/placeholder.svg'),
	  ('Webcam','Full HD webcam with built-in microphone and auto light correction.',69.99,55,'images/placeholder.svg')`)

	return tx.Commit()
}

// seedUsers ensures the demo accounts exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, a := range seedAccounts {
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM users WHERE username = ?`, a.Username); err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		h, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO users(username,password_hash,user_type)
			VALUES(?,?,?)
			ON CONFLICT(username) DO NOTHING
		`, a.Username, string(h), a.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
