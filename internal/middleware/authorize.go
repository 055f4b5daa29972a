package middleware

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/apperr"
	"portfolio/internal/models"
)

// RequireRoles lets through operators holding one of roles. It must run
// after Auth.
func RequireRoles(roles ...models.OperatorRole) gin.HandlerFunc {
	roleSet := make(map[models.OperatorRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		op, ok := CurrentOperator(c)
		if !ok {
			abort(c, apperr.KindUnauthorized, "Sign in required")
			return
		}
		if _, ok := roleSet[op.Role]; !ok {
			abort(c, apperr.KindForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}
