package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/loanhub/loanhub-api/internal/cache"
	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/utils"
)

// UserStore is the identity access needed by auth. Implemented by
// repository.UserRepository.
type UserStore interface {
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Upsert(user *models.User) error
}

// SessionWriter opens and revokes server-side sessions. Implemented by
// cache.SessionStore.
type SessionWriter interface {
	Create(ctx context.Context, id string, data cache.SessionData) error
	Delete(ctx context.Context, id string) error
}

// AuthService provides email/password signup, login and logout.
type AuthService struct {
	users    UserStore
	sessions SessionWriter
	tokenTTL time.Duration
}

// NewAuthService constructs an AuthService. tokenTTL bounds the JWT
// lifetime; the Redis session slides within it.
func NewAuthService(users UserStore, sessions SessionWriter, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokenTTL: tokenTTL}
}

// Signup registers a new user. Input shape is validated at the handler;
// this only enforces email uniqueness.
func (s *AuthService) Signup(email, password string, displayName *string) (*models.User, error) {
	if existing, err := s.users.GetByEmail(email); err == nil && existing != nil {
		return nil, utils.ErrEmailTaken
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("user signed up")
	return user, nil
}

// Login verifies credentials, refreshes the identity mirror row, and opens
// a session. Returns the user and a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", utils.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Debug().Str("email", email).Msg("password verification failed")
		return nil, "", utils.ErrInvalidCredentials
	}

	// Idempotent mirror refresh; a failure here must not block login.
	if err := s.users.Upsert(user); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("failed to refresh user row")
	}

	sessionID := uuid.New().String()
	token, err := utils.GenerateJWT(user.ID, user.Email, sessionID, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	if err := s.sessions.Create(ctx, sessionID, cache.SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, "", err
	}

	log.Info().Str("email", email).Msg("login successful")
	return user, token, nil
}

// Logout revokes the session; the token stops validating immediately even
// though its expiry has not passed.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}
