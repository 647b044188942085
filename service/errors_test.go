package service

import (
	"strings"
	"testing"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		contains   string
	}{
		{"unauthorized", 401, "", "session has expired"},
		{"forbidden", 403, "", "session has expired"},
		{"rate limited with hint", 429, "30", "30 seconds"},
		{"rate limited without hint", 429, "", "60 seconds"},
		{"server error", 500, "", "temporarily unavailable"},
		{"bad gateway", 502, "", "temporarily unavailable"},
		{"not found", 404, "", "not found"},
		{"other", 418, "", "status 418"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := normalizeStatus(tt.status, tt.retryAfter)
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("normalizeStatus(%d) = %q, expected to contain %q", tt.status, msg, tt.contains)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		hidden string
	}{
		{"bearer token", "failed with Bearer abc123.def456", "abc123"},
		{"jwt", "token eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig-part rejected", "eyJhbGciOiJIUzI1NiJ9"},
		{"password field", `{"password": "hunter2"}`, "hunter2"},
		{"api key", "api_key=sk-12345 invalid", "sk-12345"},
		{"filesystem path", "open /var/lib/app/secrets/credentials.yaml: no such file", "/var/lib/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Redact(tt.input)
			if strings.Contains(out, tt.hidden) {
				t.Errorf("Redact(%q) = %q, still contains %q", tt.input, out, tt.hidden)
			}
			if !strings.Contains(out, "[redacted]") {
				t.Errorf("Redact(%q) = %q, expected a [redacted] marker", tt.input, out)
			}
		})
	}
}

func TestRedactLeavesPlainText(t *testing.T) {
	msg := "connection refused"
	if got := Redact(msg); got != msg {
		t.Errorf("Redact(%q) = %q, expected unchanged", msg, got)
	}
}

func TestUpstreamErrorString(t *testing.T) {
	err := &UpstreamError{Endpoint: "/api/folders/", Status: 502, Message: "The service is temporarily unavailable. Please try again."}
	if !strings.Contains(err.Error(), "/api/folders/") {
		t.Error("Expected endpoint in error string")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Error("Expected status in error string")
	}

	transport := &UpstreamError{Endpoint: "/api/health", Message: "The service could not be reached."}
	if strings.Contains(transport.Error(), "status") {
		t.Error("Expected no status for transport errors")
	}
}
