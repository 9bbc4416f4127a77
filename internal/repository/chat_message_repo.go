package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/loanhub/loanhub-api/internal/models"
)

// ChatMessageRepository handles the ai_chat_messages conversation log.
type ChatMessageRepository struct {
	db *sqlx.DB
}

// NewChatMessageRepository creates a new ChatMessageRepository.
func NewChatMessageRepository(db *sqlx.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// Insert appends one conversation turn.
func (r *ChatMessageRepository) Insert(msg *models.ChatMessage) error {
	const q = `
        INSERT INTO ai_chat_messages (user_id, product_id, role, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.db.QueryRowx(q, msg.UserID, msg.ProductID, msg.Role, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt)
}

// ListByUserAndProduct returns a user's conversation for one product in
// insertion order.
func (r *ChatMessageRepository) ListByUserAndProduct(userID, productID string) ([]models.ChatMessage, error) {
	const q = `
        SELECT * FROM ai_chat_messages
        WHERE user_id = $1 AND product_id = $2
        ORDER BY created_at ASC, id ASC`

	var messages []models.ChatMessage
	if err := r.db.Select(&messages, q, userID, productID); err != nil {
		return nil, err
	}
	return messages, nil
}
