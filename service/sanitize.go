package service

import (
	"regexp"
	"strings"
)

// Patterns stripped from outbound string fields. The upstream API does its
// own validation; this only removes markup that should never appear in
// user-entered prompts or names.
var (
	angleBrackets  = regexp.MustCompile(`[<>]`)
	jsProtocol     = regexp.MustCompile(`(?i)javascript:`)
	inlineHandlers = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeString removes script-injection patterns from a single value.
func SanitizeString(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	s = inlineHandlers.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Sanitize walks a decoded JSON value and sanitizes every string in it,
// recursing through objects and arrays. Non-string scalars pass through
// untouched.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return v
	}
}
