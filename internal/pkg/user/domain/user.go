package user

import "time"

// User is the identity the auth collaborator resolves from a bearer credential.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Firstname string    `db:"firstname"`
	Lastname  string    `db:"lastname"`
	CreatedAt time.Time `db:"created_at"`
	IsActive  bool      `db:"is_active"`
}
