package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(backend string) *gin.Engine {
	h := NewAuthHandler(newTestBackend(backend))
	router := gin.New()
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/auth/me", asUser("user-1", h.Me))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterForwards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/register" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode forwarded payload: %v", err)
		}
		if payload["email"] != "user@example.com" {
			t.Errorf("Expected email forwarded, got %v", payload["email"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"user-9"}`))
	}))
	defer server.Close()

	w := postJSON(t, authRouter(server.URL), "/api/auth/register",
		`{"email":"user@example.com","password":"hunter2hunter2","full_name":"Test User"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected upstream status 201 passed through, got %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Upstream should not be called for invalid payloads")
	}))
	defer server.Close()

	router := authRouter(server.URL)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"hunter2hunter2"}`},
		{"invalid email", `{"email":"not-an-email","password":"hunter2hunter2"}`},
		{"short password", `{"email":"user@example.com","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/auth/register", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestLoginPassesUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid credentials"}`))
	}))
	defer server.Close()

	w := postJSON(t, authRouter(server.URL), "/api/auth/login",
		`{"email":"user@example.com","password":"wrong-password"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected upstream status 401 passed through, got %d", w.Code)
	}
}

func TestMe(t *testing.T) {
	w := perform(t, authRouter("http://unused"), "GET", "/api/auth/me")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["id"] != "user-1" {
		t.Errorf("Expected id user-1, got %v", resp["id"])
	}
}
