package models

import "time"

// User mirrors an authenticated identity. Rows are upserted idempotently on
// login and signup so a missing mirror row never blocks authentication.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  *string   `db:"display_name" json:"displayName"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}
