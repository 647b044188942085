package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/pkg/logger"
	"github.com/tabular-review/gateway/service"
)

// failureMessage converts a sub-fetch error into the string collected in
// the response's errors array. Only normalized messages reach clients;
// raw detail stays in logs.
func failureMessage(label string, err error) string {
	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		return label + ": " + upErr.Message
	}
	return label + ": " + service.Redact(err.Error())
}

// logFailure records the full sub-fetch error server-side.
func logFailure(c *gin.Context, label string, err error) {
	logger.Warn(c.Request.Context(), "sub-request failed",
		"target", label,
		"error", err.Error(),
	)
}

// timestamp is the ISO timestamp attached to every aggregate response.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// recoverZeroed guarantees a well-shaped 500 when an aggregation handler
// fails unexpectedly: every declared array field stays an array and stats
// are zeroed, so the UI never branches on a missing shape.
func recoverZeroed(c *gin.Context, zero gin.H) {
	if r := recover(); r != nil {
		logger.Error(c.Request.Context(), "aggregation handler panic", "error", fmt.Sprint(r))

		zero["error"] = "Internal server error"
		zero["timestamp"] = timestamp()
		c.JSON(http.StatusInternalServerError, zero)
		c.Abort()
	}
}
