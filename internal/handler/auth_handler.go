package handler

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/utils"
)

// AuthProvider is the auth surface the handler needs. Implemented by
// service.AuthService.
type AuthProvider interface {
	Signup(email, password string, displayName *string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler handles signup and login endpoints.
type AuthHandler struct {
	auth AuthProvider
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth AuthProvider) *AuthHandler {
	return &AuthHandler{auth: auth}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateCredentials rejects malformed input before any store or session
// call is made. Returns a user-facing message or empty when valid.
func validateCredentials(email, password string) string {
	if !emailPattern.MatchString(email) {
		return "Invalid email address"
	}
	if len(password) < 6 {
		return "Password must be at least 6 characters"
	}
	return ""
}

// Signup registers a new account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email       string  `json:"email"`
		Password    string  `json:"password"`
		DisplayName *string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateCredentials(req.Email, req.Password); msg != "" {
		utils.Error(c, 400, msg)
		return
	}

	user, err := h.auth.Signup(req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, utils.ErrEmailTaken) {
			utils.Error(c, 400, "An account with this email already exists")
			return
		}
		utils.Error(c, 500, "Failed to create account")
		return
	}

	c.JSON(200, gin.H{"user": user})
}

// Login authenticates an account and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if msg := validateCredentials(req.Email, req.Password); msg != "" {
		utils.Error(c, 400, msg)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			utils.Error(c, 400, "Invalid email or password")
			return
		}
		utils.Error(c, 500, "Login failed")
		return
	}

	c.JSON(200, gin.H{"user": user, "token": token})
}

// Logout revokes the caller's session. Requires authentication, so the
// session ID is always present in the context.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString("session_id")); err != nil {
		utils.Error(c, 500, "Logout failed")
		return
	}
	c.JSON(200, gin.H{"message": "Logged out"})
}
