package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS creates a permissive CORS middleware for the game client origin.
func CORS() gin.HandlerFunc {
	allowHeaders := strings.Join([]string{
		"Content-Type", "Content-Length", "Accept", "Origin",
		"Authorization", "Cache-Control", "X-Requested-With", TraceIDHeader,
	}, ", ")
	allowMethods := "GET, POST, PUT, PATCH, DELETE, OPTIONS"

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", TraceIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
