package service

import (
	"fmt"
	"regexp"
	"strconv"
)

// UpstreamError describes a failed upstream call. Message is safe to show
// to a client; the raw detail stays in server logs only.
type UpstreamError struct {
	Endpoint string
	Status   int    // 0 for transport errors
	Message  string // client-facing
	Detail   string // logged, never returned
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
}

// normalizeStatus maps an upstream status code to the small set of
// user-facing messages the client renders.
func normalizeStatus(status int, retryAfter string) string {
	switch {
	case status == 401 || status == 403:
		return "Your session has expired. Please sign in again."
	case status == 429:
		seconds := 60
		if n, err := strconv.Atoi(retryAfter); err == nil && n > 0 {
			seconds = n
		}
		return fmt.Sprintf("Too many requests. Please try again in %d seconds.", seconds)
	case status >= 500:
		return "The service is temporarily unavailable. Please try again."
	case status == 404:
		return "The requested resource was not found."
	default:
		return fmt.Sprintf("Request failed with status %d.", status)
	}
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.]+`),
	regexp.MustCompile(`(?i)(token|password|secret|api_key|apikey)["':\s=]+[^\s"',}]+`),
	regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`), // JWT
	regexp.MustCompile(`(?:/[\w.\-]+){3,}`),                                    // filesystem paths
}

// Redact strips token, credential and path-like substrings from a message
// before it can reach a client.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, "[redacted]")
	}
	return s
}
