package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zamindar/collegeportal/internal/domain/user"
)

// RequireRole passes requests through only when the authenticated
// identity carries one of the permitted roles. Stateless.
func (m *AuthMiddleware) RequireRole(permitted ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(permitted))

	for _, r := range permitted {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Insufficient permissions",
				},
			})
			return
		}
		c.Next()
	}
}
