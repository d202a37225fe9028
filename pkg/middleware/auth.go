package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grandstay/service-frontdesk/pkg/auth"
	"github.com/grandstay/service-frontdesk/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
	ctxEmail  = "user_email"
)

// AuthMiddleware verifies the bearer token and stores the caller identity
// on the gin context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// RequireRole lets the request through only if the caller has one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient privileges")
	}
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
