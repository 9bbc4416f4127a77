package models

import "time"

// ChatRole identifies who produced a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one persisted turn of a product conversation. UserID is nil
// for anonymous visitors, whose turns are logged but not retrievable through
// the per-user history endpoint.
type ChatMessage struct {
	ID        int64     `db:"id" json:"-"`
	UserID    *string   `db:"user_id" json:"-"`
	ProductID string    `db:"product_id" json:"-"`
	Role      ChatRole  `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
