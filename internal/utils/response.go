package utils

import "github.com/gin-gonic/gin"

// Error writes the flat error shape used by every endpoint: {"error": msg}.
// Upstream detail never travels through here; callers log it and pass a
// generic message instead.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
