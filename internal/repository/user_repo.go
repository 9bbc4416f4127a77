package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/loanhub/loanhub-api/internal/models"
)

// UserRepository handles data access for the users table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	const q = `SELECT * FROM users WHERE email = $1 LIMIT 1`

	var u models.User
	if err := r.db.Get(&u, q, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(user *models.User) error {
	const q = `
        INSERT INTO users (id, email, password_hash, display_name)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	return r.db.QueryRowx(q, user.ID, user.Email, user.PasswordHash, user.DisplayName).
		Scan(&user.CreatedAt)
}

// Upsert inserts or refreshes the identity mirror row. Idempotent: a login
// for an already-present user only refreshes the display name.
func (r *UserRepository) Upsert(user *models.User) error {
	const q = `
        INSERT INTO users (id, email, password_hash, display_name)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            display_name = COALESCE(EXCLUDED.display_name, users.display_name)`

	_, err := r.db.Exec(q, user.ID, user.Email, user.PasswordHash, user.DisplayName)
	return err
}
