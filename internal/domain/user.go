package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	Hash     string `db:"password_hash"`
	Role     string `db:"role"`
	Address  string `db:"address"`
	Contact  string `db:"contact"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
