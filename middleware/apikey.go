package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey guards admin endpoints with the X-API-KEY header.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-API-KEY") != key {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid or missing API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
