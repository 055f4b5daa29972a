package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
	"portfolio/internal/content"
)

// writeError answers with {"error": message, "code": kind}. Only backend
// failures are logged; rejected input is the caller's problem.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == "" {
		kind = apperr.KindUnavailable
		msg = "Something went wrong, try again later"
	}
	if kind == apperr.KindUnavailable {
		log.Error().
			Err(errors.Unwrap(err)).
			Str("message", msg).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": msg, "code": kind})
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation(content.Describe(fieldErrs[0]))
	}
	return apperr.Validation("Invalid request body")
}
