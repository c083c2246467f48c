package middleware

import (
	"net/http"
	"strings"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthzConfig configures the bearer-token middleware.
type AuthzConfig struct {
	Secret string
}

// AuthzMiddleware validates the Authorization bearer token and stores the
// authenticated actor's user_id in the request context. Downstream handlers
// treat that identity as opaque.
func AuthzMiddleware(cfg AuthzConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := utils.ParseJWT(parts[1], cfg.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// Refresh tokens are not valid for API access.
		if tokenType, ok := claims["type"].(string); ok && tokenType == "refresh" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token type"})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || !utils.IsValidUUID(userID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
