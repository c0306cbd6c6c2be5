package middleware

import (
	"strings"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	"membership-backend/internal/features/auth/service"

	"github.com/gin-gonic/gin"
)

const actingEmailKey = "acting_email"

// Authenticate verifies the Bearer token when present and resolves the
// acting caller's email into the request context. Requests without a token
// pass through unauthenticated; RequireAuth gates the protected routes.
func Authenticate(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			commonmw.RespondError(c, apperrors.NewUnauthorizedError("malformed Authorization header"))
			return
		}

		email, err := tokens.ParseSubject(strings.TrimSpace(tokenStr))
		if err != nil {
			commonmw.RespondError(c, apperrors.NewUnauthorizedError("invalid or expired token"))
			return
		}

		c.Set(actingEmailKey, email)
		c.Next()
	}
}

// RequireAuth rejects requests that did not present a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActingEmail(c); !ok {
			commonmw.RespondError(c, apperrors.NewUnauthorizedError("authentication required"))
			return
		}
		c.Next()
	}
}

// ActingEmail returns the verified email of the acting caller.
func ActingEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(actingEmailKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok && email != ""
}
