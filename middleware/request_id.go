package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tabular-review/gateway/pkg/logger"
)

// RequestIDHeader carries the correlation id between the browser, this
// gateway and the access log.
const RequestIDHeader = "X-Request-ID"

// Inbound ids longer than this are replaced rather than trusted, so a
// misbehaving client cannot pad the logs.
const maxRequestIDLength = 64

// RequestID assigns each request a correlation id. An inbound id is
// reused so browser-reported failures can be matched to gateway log
// lines; every response echoes the id back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the correlation id assigned to this request.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		return id.(string)
	}
	return ""
}
