package domain

import "strings"

type User struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Hash      string `db:"password_hash"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Customer is the shopping profile of a user. One per user.
type Customer struct {
	ID      string `db:"id"`
	UserID  string `db:"user_id"`
	Phone   string `db:"phone"`
	Address string `db:"address"`
}
