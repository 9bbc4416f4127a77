package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionData is the per-session record stored in Redis.
type SessionData struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore keeps authenticated sessions in Redis with a sliding TTL.
// Touching a session on each authenticated request mirrors the original
// behavior of refreshing the session cookie per request.
type SessionStore struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionStore creates a session store with the given sliding TTL.
func NewSessionStore(redis *RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: redis, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create persists a new session under the given ID.
func (s *SessionStore) Create(ctx context.Context, id string, data SessionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(id), string(payload), s.ttl)
}

// Get returns the session record for an ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*SessionData, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var data SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Touch extends the session TTL. Returns ErrSessionNotFound if the session
// has already expired.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	ok, err := s.redis.Expire(ctx, sessionKey(id), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session (logout).
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.redis.Delete(ctx, sessionKey(id))
}
