package repos

import (
	"context"
	"time"

	"qashop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.id, o.user_id, COALESCE(u.username,'') AS username, o.total_amount, o.status,
	o.shipping_details, o.created_at`

// CreateOrder inserts a pending order header inside tx and returns its id.
func (r *OrderRepo) CreateOrder(ctx context.Context, tx *sqlx.Tx, userID int64, total decimal.Decimal, shippingJSON string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
	  INSERT INTO orders (user_id, total_amount, status, shipping_details, created_at)
	  VALUES             (?,       ?,            ?,      ?,                ?)
	`, userID, total, domain.OrderStatusPending, shippingJSON, time.Now().UTC().Format(time.DateTime))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateOrderItem inserts a single line item inside tx.
func (r *OrderRepo) CreateOrderItem(ctx context.Context, tx *sqlx.Tx, orderID, productID int64, qty int, price decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
	  INSERT INTO order_items(order_id, product_id, quantity, price)
	  VALUES(?, ?, ?, ?)
	`, orderID, productID, qty, price)
	return err
}

// GetForUser returns sql.ErrNoRows unless the order exists and belongs to userID.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, `
		SELECT `+orderCols+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = ? AND o.user_id = ?
	`, orderID, userID)
	return o, err
}

func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT oi.order_id, oi.product_id, COALESCE(p.name,'') AS name, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.id
	`, orderID)
	return items, err
}

// ListLatest is the admin order list, newest first.
func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderCols+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ?
	`, limit)
	return out, err
}

// CountForUser reports how many orders userID has placed.
func (r *OrderRepo) CountForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID)
	return n, err
}
