package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loanhub/loanhub-api/internal/service"
	"github.com/loanhub/loanhub-api/internal/utils"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

// ChatHandler handles grounded product Q&A endpoints.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask answers a question about one product, grounded in that product's row.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req struct {
		ProductID string         `json:"productId"`
		Message   string         `json:"message"`
		History   []service.Turn `json:"history"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		utils.Error(c, 400, "No message provided")
		return
	}
	if req.ProductID == "" {
		utils.Error(c, 400, "No productId provided")
		return
	}

	userID := c.GetString("user_id")
	answer, product, err := h.chatService.Ask(c.Request.Context(), userID, service.AskRequest{
		ProductID: req.ProductID,
		Message:   req.Message,
		History:   req.History,
	})
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrProductNotFound):
			utils.Error(c, 404, "Product not found")
		case errors.Is(err, openai.ErrNotConfigured):
			log.Error().Msg("chat completion credentials missing")
			utils.Error(c, 500, "Server misconfiguration")
		default:
			utils.Error(c, 500, "AI request failed")
		}
		return
	}

	c.JSON(200, gin.H{
		"answer":  answer,
		"product": product,
	})
}

// History returns the caller's logged conversation for a product.
func (h *ChatHandler) History(c *gin.Context) {
	userID := c.GetString("user_id")
	messages, err := h.chatService.History(userID, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("product_id", c.Param("id")).Msg("failed to load chat history")
		utils.Error(c, 500, "Failed to get chat history")
		return
	}

	c.JSON(200, gin.H{"messages": messages})
}
