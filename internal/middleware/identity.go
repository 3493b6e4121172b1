package middleware

import (
	"net/http"
	"strings"

	"radar/config"
	"radar/internal/auth"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// Identity accepts an optional device token. When an Authorization header is sent it must
// carry a valid bearer token, and the token's subject becomes the caller's user id.
// Requests without the header pass through and name the user explicitly.
func Identity(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		userID, err := auth.ParseDeviceToken(cfg, strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the token's user id when one was presented, otherwise explicit.
func UserID(c *gin.Context, explicit string) string {
	if v, ok := c.Get(userIDKey); ok {
		if id, _ := v.(string); id != "" {
			return id
		}
	}
	return strings.TrimSpace(explicit)
}
