// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication: RequireAuth validates the
// Authorization header against the configured signing secret and publishes the
// authenticated identity into the Gin context for handlers, the access logger,
// and the rate limiter (which keys buckets by user when one is present).
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akontos/go-progress-backend/internal/auth"
)

const (
	// usernameKey is the Gin context key for the authenticated username.
	usernameKey = "username"
)

// UserIDFrom returns the authenticated user ID set by RequireAuth, empty when
// the request is unauthenticated.
func UserIDFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	s, _ := v.(string)
	return s
}

// RequireAuth rejects requests without a valid "Bearer <token>" Authorization
// header. On success it stores the token's user ID and username in the Gin
// context; on failure it answers 401 with the standard error envelope and a
// WWW-Authenticate challenge.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, prefix) {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(secret, strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
