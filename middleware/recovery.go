package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/pkg/logger"
)

// Recovery converts an unhandled panic into the same well-shaped 500 the
// aggregation handlers guarantee: a generic message, the request id for
// support lookups, and a timestamp. The panic value and stack never
// leave the server log.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", fmt.Sprint(r),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": GetRequestID(c),
					"timestamp":  time.Now().UTC().Format(time.RFC3339),
				})
			}
		}()

		c.Next()
	}
}
