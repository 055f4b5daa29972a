package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
)

// Recovery turns a panicking handler into the same 500 body every backend
// failure gets. A panic after the response started only gets logged.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", RequestIDFrom(c)).
				Msg("handler panicked")
			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortStatus(c, http.StatusInternalServerError, string(apperr.KindUnavailable), "Something went wrong, try again later")
		}()
		c.Next()
	}
}
