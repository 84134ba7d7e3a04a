package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zamindar/collegeportal/internal/auth"
	"github.com/zamindar/collegeportal/internal/config"
	"github.com/zamindar/collegeportal/internal/domain/user"
	"github.com/zamindar/collegeportal/internal/repo/postgres"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth validates the bearer token and reloads the user row so a
// deleted account is rejected even while its token is still unexpired.
// That is one store read per authenticated request; there is no cache.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing_token", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "missing_token", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortUnauthorized(c, "token_expired", "Access token has expired")
				return
			}

			abortUnauthorized(c, "invalid_token", "Invalid access token")
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, claims.UserID)
		if err != nil {
			if errors.Is(err, postgres.ErrUserNotFound) {
				abortUnauthorized(c, "user_not_found", "Invalid token - user not found")
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Authentication error",
				},
			})
			return
		}

		// Stash useful bits of identity on the context
		SetIdentity(c, u.ID, u.Email, u.Role)

		c.Next()
	}
}

// SetIdentity stashes the authenticated identity on the gin context.
// Exposed so handler tests can fake an authenticated request.
func SetIdentity(c *gin.Context, id, email string, role user.Role) {
	c.Set(ctxUserIDKey, id)
	c.Set(ctxEmailKey, email)
	c.Set(ctxRoleKey, role)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// Optional helpers so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
