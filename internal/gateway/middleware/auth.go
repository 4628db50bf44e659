package middleware

import (
	"context"
	"net/http"
	"strings"

	"whisk-system/internal/api"

	"github.com/gin-gonic/gin"
)

const UserKey = "user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*api.User, error)
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}

// JWTAuth rejects requests without a valid "Authorization: Bearer" token.
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			unauthorized(c, "Bearer token required")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}
