package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/utils"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

// ChatMessageStore persists conversation turns. Implemented by
// repository.ChatMessageRepository.
type ChatMessageStore interface {
	Insert(msg *models.ChatMessage) error
	ListByUserAndProduct(userID, productID string) ([]models.ChatMessage, error)
}

// Turn is one prior conversation turn supplied by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is one grounded question about a specific product.
type AskRequest struct {
	ProductID string
	Message   string
	History   []Turn
}

// ChatService answers product questions with the model constrained to the
// product's own data. The constraint lives in the instruction only; the
// answer is not post-validated against the record.
type ChatService struct {
	products ProductStore
	messages ChatMessageStore
	llm      ChatCompleter
}

// NewChatService constructs a ChatService.
func NewChatService(products ProductStore, messages ChatMessageStore, llm ChatCompleter) *ChatService {
	return &ChatService{products: products, messages: messages, llm: llm}
}

// Ask fetches the product, assembles grounding data before history before
// the new question, and returns the model's reply verbatim. userID may be
// empty for anonymous visitors; turns are logged either way, with a NULL
// user. Logging failures never fail the request.
func (s *ChatService) Ask(ctx context.Context, userID string, req AskRequest) (string, *models.Product, error) {
	product, err := s.products.GetByID(req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, utils.ErrProductNotFound
		}
		return "", nil, err
	}

	messages, err := buildGroundedMessages(product, req.History, req.Message)
	if err != nil {
		return "", nil, err
	}

	answer, err := s.llm.ChatCompletion(ctx, openai.ChatRequest{
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		if !errors.Is(err, openai.ErrNotConfigured) {
			log.Error().Err(err).Str("product_id", req.ProductID).Msg("grounded answer failed")
		}
		return "", nil, err
	}
	answer = strings.TrimSpace(answer)

	s.logTurn(userID, req.ProductID, models.RoleUser, req.Message)
	s.logTurn(userID, req.ProductID, models.RoleAssistant, answer)

	return answer, product, nil
}

// History returns the caller's logged conversation for a product in
// insertion order.
func (s *ChatService) History(userID, productID string) ([]models.ChatMessage, error) {
	messages, err := s.messages.ListByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// buildGroundedMessages orders the outbound request as grounding data, then
// prior turns in original order, then the new question last.
func buildGroundedMessages(product *models.Product, history []Turn, question string) ([]openai.Message, error) {
	record, err := json.MarshalIndent(product, "", "  ")
	if err != nil {
		return nil, err
	}

	system := fmt.Sprintf(`You are an assistant for a loan products site. Answer the user's questions using ONLY the product data below. If the data does not contain the information needed, say so explicitly instead of guessing. Keep answers concise and mention the APR, eligibility requirements, or next steps when relevant.

Product data:
%s`, record)

	messages := make([]openai.Message, 0, len(history)+2)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: system})
	for _, turn := range history {
		if turn.Role != openai.RoleUser && turn.Role != openai.RoleAssistant {
			continue
		}
		messages = append(messages, openai.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: question})
	return messages, nil
}

func (s *ChatService) logTurn(userID, productID string, role models.ChatRole, content string) {
	msg := &models.ChatMessage{ProductID: productID, Role: role, Content: content}
	if userID != "" {
		msg.UserID = &userID
	}
	if err := s.messages.Insert(msg); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("failed to log chat turn")
	}
}
