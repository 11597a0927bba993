package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateAPIKey guards the back-office group. An empty key disables the group.
func ValidateAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-KEY")
		if key == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
