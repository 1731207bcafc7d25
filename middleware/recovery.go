package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/types"
)

// Recovery creates a middleware that recovers from handler panics.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("trace_id", GetTraceID(c)).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
					StatusCode: http.StatusInternalServerError,
					IsSuccess:  false,
					Error: types.ErrorDetail{
						Timestamp:    time.Now().Format(time.RFC3339),
						Path:         c.Request.URL.Path,
						ErrorMessage: "Internal server error",
					},
				})
			}
		}()

		c.Next()
	}
}
