package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/config"
	"github.com/tabular-review/gateway/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestBackend builds an upstream client pointed at a test server with
// short timeouts so failure cases stay fast.
func newTestBackend(serverURL string) *service.Backend {
	return service.NewBackend(&config.BackendConfig{
		URL:                  serverURL,
		TimeoutSeconds:       2,
		SlowTimeoutSeconds:   2,
		UploadTimeoutSeconds: 2,
		MaxAttempts:          1,
	})
}

// asUser wraps a handler with the context values the auth middleware
// would normally set.
func asUser(userID string, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", userID+"@example.com")
		c.Set("access_token", "test-token-"+userID)
		fn(c)
	}
}

func perform(t *testing.T, router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
