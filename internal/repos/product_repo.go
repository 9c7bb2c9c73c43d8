package repos

import (
	"context"

	"qashop/internal/domain"

	"github.com/jmoiron/sqlx"
)

const productCols = `id, name, description, price, stock, image_path, COALESCE(created_at,'') AS created_at`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY name`)
	return out, err
}

// Get returns sql.ErrNoRows when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// ByIDs returns the products that exist among ids. Order is not guaranteed.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	return byIDs(ctx, r.db, ids)
}

// ByIDsTx is ByIDs inside the caller's transaction.
func (r *ProductRepo) ByIDsTx(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]domain.Product, error) {
	return byIDs(ctx, tx, ids)
}

func byIDs(ctx context.Context, q sqlx.QueryerContext, ids []int64) ([]domain.Product, error) {
	out := []domain.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, q, &out, query, args...)
	return out, err
}

// Create inserts a product and returns its id.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products(name, description, price, stock, image_path)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Description, p.Price, p.Stock, p.ImagePath)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
