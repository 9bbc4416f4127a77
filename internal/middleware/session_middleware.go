package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loanhub/loanhub-api/internal/cache"
	"github.com/loanhub/loanhub-api/internal/utils"
)

// SessionToucher validates and slides server-side sessions. Implemented by
// cache.SessionStore.
type SessionToucher interface {
	Get(ctx context.Context, id string) (*cache.SessionData, error)
	Touch(ctx context.Context, id string) error
}

// SessionMiddleware authenticates bearer tokens against the Redis session
// store. Every accepted request slides the session TTL forward, mirroring a
// cookie refreshed per request.
type SessionMiddleware struct {
	sessions SessionToucher
}

// NewSessionMiddleware constructs a SessionMiddleware.
func NewSessionMiddleware(sessions SessionToucher) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Required rejects requests without a valid token and live session.
func (m *SessionMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.authenticate(c)
		if !ok {
			utils.Error(c, 401, "Authentication required")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("session_id", claims.ID)
		c.Next()
	}
}

// Optional attaches the user identity when a valid token is presented and
// lets anonymous or stale-token requests through without one. Chat works
// logged out; only history persistence needs the identity.
func (m *SessionMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.authenticate(c); ok {
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("session_id", claims.ID)
		}
		c.Next()
	}
}

func (m *SessionMiddleware) authenticate(c *gin.Context) (*utils.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, false
	}

	ctx := c.Request.Context()
	if _, err := m.sessions.Get(ctx, claims.ID); err != nil {
		return nil, false
	}
	if err := m.sessions.Touch(ctx, claims.ID); err != nil {
		log.Warn().Err(err).Msg("failed to refresh session ttl")
	}
	return claims, true
}
