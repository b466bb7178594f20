package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"blog-be/internal/apperrors"
	"blog-be/internal/jwt"
)

const userIDKey = "user_id"

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the token's user id in the context.
func AuthMiddleware(tokens *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(apperrors.Unauthenticated("Not authenticated."))
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			_ = c.Error(apperrors.Unauthenticated("Not authenticated."))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(apperrors.Unauthenticated("Invalid or expired token."))
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user's id, empty outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
