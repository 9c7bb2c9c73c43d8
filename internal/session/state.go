package session

import "qashop/internal/domain"

// CSRFKey holds the csrf middleware's token. State never touches it.
const CSRFKey = "csrf_token"

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyUserType = "user_type"
	keyCart     = "cart"
)

// Principal is the authenticated user bound to a session.
type Principal struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// State is the decoded content of one session. Core operations receive it
// explicitly and the Manager writes it back.
type State struct {
	ID       string
	UserID   int64
	Username string
	Role     domain.Role
	Cart     domain.Cart
}

func (s *State) IsAuthenticated() bool { return s.UserID != 0 }

func (s *State) IsAdmin() bool { return s.IsAuthenticated() && s.Role == domain.RoleAdmin }

func (s *State) Principal() Principal {
	return Principal{UserID: s.UserID, Username: s.Username, Role: s.Role}
}

// SetPrincipal binds u to the session.
func (s *State) SetPrincipal(u *domain.User) {
	s.UserID = u.ID
	s.Username = u.Username
	s.Role = u.Role
}
