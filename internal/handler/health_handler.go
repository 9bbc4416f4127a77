package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/loanhub/loanhub-api/internal/cache"
)

// HealthHandler reports service and dependency status.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth pings the database and Redis. Returns 503 when either is down.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status := 200
	dbStatus, redisStatus := "up", "up"

	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		status = 503
	}
	if err := h.redis.Ping(ctx); err != nil {
		redisStatus = "down"
		status = 503
	}

	overall := "ok"
	if status != 200 {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
