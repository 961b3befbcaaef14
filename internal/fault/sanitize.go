package fault

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	credURLPattern  = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s/@]+@[^\s"']*`)
	bearerPattern   = regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._~+/=-]+`)
	secretPattern   = regexp.MustCompile(`(?i)\b(password|passwd|pwd|token|secret|api[_-]?key|access[_-]?key|authorization)\b(\s*[:=]\s*)("[^"]*"|'[^']*'|[^\s,;]+)`)
	unixPathPattern = regexp.MustCompile(`(^|[\s"'(=\[])(?:~|\.{1,2})?/[^\s"'()\[\]]+`)
	winPathPattern  = regexp.MustCompile(`\b[a-zA-Z]:\\[^\s"']+`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Sanitize strips file paths, credential-looking substrings and URLs with
// embedded userinfo from s, collapses whitespace and truncates the result to
// max runes (max <= 0 disables truncation).
func Sanitize(s string, max int) string {
	s = credURLPattern.ReplaceAllString(s, "[redacted-url]")
	s = bearerPattern.ReplaceAllString(s, "Bearer [redacted]")
	s = secretPattern.ReplaceAllString(s, "${1}${2}[redacted]")
	s = unixPathPattern.ReplaceAllString(s, "${1}[path]")
	s = winPathPattern.ReplaceAllString(s, "[path]")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
	return truncateRunes(s, max)
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// backendMessage extracts the "error" field of an Ollama JSON error body,
// falling back to the raw body.
func backendMessage(body string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return body
}

// SafeAddr drops userinfo, query and fragment from a backend URL so it can be
// shown to clients.
func SafeAddr(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return Sanitize(addr, maxExcerpt)
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
