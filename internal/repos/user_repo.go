package repos

import (
	"context"

	"qashop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT id,username,password_hash,user_type FROM users WHERE username=?`, username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
