package services

import (
	"context"

	"qashop/internal/domain"
	"qashop/internal/repos"
	"qashop/internal/session"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users *repos.UserRepo
}

// Login checks credentials and binds the user to st. A locked account is
// only reported after the password matched, so a wrong password never
// reveals whether an account exists or is locked.
func (s *AuthService) Login(ctx context.Context, st *session.State, username, password string) (domain.Role, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if u.Role == domain.RoleLocked {
		return "", ErrAccountLocked
	}
	st.SetPrincipal(u)
	return u.Role, nil
}
