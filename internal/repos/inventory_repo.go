package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrShortStock is returned by DecrementTx when a product has fewer units
// than requested.
var ErrShortStock = errors.New("insufficient stock")

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Stock returns current stock for a product, sql.ErrNoRows if it is unknown.
func (r *InventoryRepo) Stock(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, `SELECT stock FROM products WHERE id = ?`, productID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// SetStock overwrites the stock level of an existing product.
func (r *InventoryRepo) SetStock(ctx context.Context, productID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, qty, productID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DecrementTx subtracts "by" units inside tx if enough stock exists.
func (r *InventoryRepo) DecrementTx(ctx context.Context, tx *sqlx.Tx, productID int64, by int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`, by, productID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrShortStock
	}
	return nil
}
