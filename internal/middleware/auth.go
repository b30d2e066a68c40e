package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekoinbox/backend/internal/auth"
)

// AdminAuth guards moderation routes. It expects
// "Authorization: Bearer <token>" and aborts with 401 when the header
// is missing, malformed, or the token fails verification (bad
// signature, bad structure, expired). A rejected request never reaches
// the handler.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		if _, err := auth.ParseToken(token, secret); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
// Returns false when the header is absent or not in Bearer form.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
