package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio/internal/apperr"
	"portfolio/internal/models"
	"portfolio/internal/security"
)

const (
	ContextOperator = "current_operator"
	ContextClaims   = "access_claims"
)

type SessionReader interface {
	GetByID(ctx context.Context, id string) (models.Session, error)
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

type OperatorReader interface {
	GetByID(ctx context.Context, id string) (models.Operator, error)
}

// Auth accepts a bearer access token whose session still exists and whose
// operator is active.
func Auth(secret string, sessions SessionReader, operators OperatorReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, apperr.KindUnauthorized, "Sign in required")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := security.ParseAccessToken(tokenStr, secret)
		if err != nil {
			abort(c, apperr.KindUnauthorized, "Invalid or expired token")
			return
		}

		ctx := c.Request.Context()
		session, err := sessions.GetByID(ctx, claims.SessionID)
		if err != nil || session.OperatorID != claims.OperatorID || session.DeviceID != claims.DeviceID {
			abort(c, apperr.KindUnauthorized, "Session expired, sign in again")
			return
		}

		op, err := operators.GetByID(ctx, claims.OperatorID)
		if err != nil {
			abort(c, apperr.KindUnauthorized, "Session expired, sign in again")
			return
		}
		if op.Status != models.OperatorStatusActive {
			abort(c, apperr.KindForbidden, "Account suspended")
			return
		}

		_ = sessions.Touch(ctx, session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(ContextClaims, *claims)
		c.Set(ContextOperator, op)
		c.Next()
	}
}

func CurrentOperator(c *gin.Context) (models.Operator, bool) {
	v, ok := c.Get(ContextOperator)
	if !ok {
		return models.Operator{}, false
	}
	op, ok := v.(models.Operator)
	return op, ok
}

func CurrentClaims(c *gin.Context) (security.AccessClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return security.AccessClaims{}, false
	}
	claims, ok := v.(security.AccessClaims)
	return claims, ok
}

func abort(c *gin.Context, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": msg, "code": kind})
}

func abortStatus(c *gin.Context, status int, code string, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
