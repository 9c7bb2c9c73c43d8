package domain

type Role string

const (
	RoleStandard Role = "standard"
	RoleLocked   Role = "locked"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Hash     string `db:"password_hash"`
	Role     Role   `db:"user_type"`
}
