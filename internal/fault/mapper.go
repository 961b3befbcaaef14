package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-facing details. Validation reasons are echoed instead.
const (
	DetailInvalidJSON = "Invalid JSON in request body"
	DetailTimeout     = "Request timeout - Ollama is too slow or not responding"
	DetailProtocol    = "Invalid response from Ollama service"
	DetailUnexpected  = "An error occurred processing your request"
)

// maxExcerpt is the longest backend excerpt included in a detail, in runes.
const maxExcerpt = 200

// Map converts err into an HTTP status and a detail safe to return to the
// client. backendAddr is the configured backend URL, included only in the
// unavailable detail so operators can spot a misconfigured address.
func Map(err error, backendAddr string) (int, string) {
	var fe *Error
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError, DetailUnexpected
	}
	switch fe.Kind {
	case KindValidation:
		return http.StatusBadRequest, fe.Reason
	case KindBadRequest:
		return http.StatusBadRequest, DetailInvalidJSON
	case KindUnavailable:
		if backendAddr == "" {
			return http.StatusServiceUnavailable, "Cannot connect to Ollama service"
		}
		return http.StatusServiceUnavailable, "Cannot connect to Ollama service at " + SafeAddr(backendAddr)
	case KindTimeout:
		return http.StatusServiceUnavailable, DetailTimeout
	case KindBackendStatus:
		excerpt := Sanitize(backendMessage(fe.Body), maxExcerpt)
		if excerpt == "" {
			return http.StatusServiceUnavailable, fmt.Sprintf("Ollama error (%d)", fe.Status)
		}
		return http.StatusServiceUnavailable, fmt.Sprintf("Ollama error (%d): %s", fe.Status, excerpt)
	case KindProtocol:
		return http.StatusInternalServerError, DetailProtocol
	default:
		return http.StatusInternalServerError, DetailUnexpected
	}
}
