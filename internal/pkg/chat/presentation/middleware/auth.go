package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

const (
	UserIDKey   = "chat_user_id"
	UserRoleKey = "chat_user_role"
	UserNameKey = "chat_user_name"

	bearerPrefix = "Bearer "
)

// ExtractBearer pulls the token out of an Authorization header value, or
// returns "" when the header is absent or not a bearer credential.
func ExtractBearer(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// RequireChatAuth verifies the chat session token on every request and stores
// the caller's identity in the gin context. Verification failure is uniformly
// a 401; no distinction between missing, malformed, and expired.
func RequireChatAuth(svc *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := svc.Verify(ExtractBearer(c.GetHeader("Authorization")))
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UserNameKey, claims.Name)

		c.Next()
	}
}

// UserID extracts the authenticated user id from the gin context.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		return v.(string)
	}
	return ""
}

// UserRole extracts the authenticated role from the gin context.
func UserRole(c *gin.Context) string {
	if v, ok := c.Get(UserRoleKey); ok {
		return v.(string)
	}
	return ""
}

// UserName extracts the authenticated display name from the gin context.
func UserName(c *gin.Context) string {
	if v, ok := c.Get(UserNameKey); ok {
		return v.(string)
	}
	return ""
}
