// Package fault defines the closed set of failure kinds produced by chatd and
// maps them to the client-facing error contract. Backend failures are
// classified once, at the inference client boundary; everything above that
// switches on Kind and never inspects error strings.
package fault

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind is a fault category.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindBadRequest
	KindUnavailable
	KindTimeout
	KindBackendStatus
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindBackendStatus:
		return "backend_status"
	case KindProtocol:
		return "protocol"
	default:
		return "unexpected"
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op is the backend operation (ping, list, generate) for backend faults.
	Op string
	// Reason is safe to show to the client. Only set for validation faults.
	Reason string
	// Status and Body describe a non-success backend response. Body is
	// truncated and only reaches clients through Sanitize.
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return e.Reason
	case KindBackendStatus:
		return fmt.Sprintf("ollama %s: http %d: %s", e.Op, e.Status, e.Body)
	}
	msg := e.Kind.String()
	if e.Op != "" {
		msg = "ollama " + e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// maxBodyBytes bounds the backend body retained on a BackendStatus fault.
const maxBodyBytes = 4096

// Validation reports a rejected client message. reason is echoed verbatim.
func Validation(reason string) error { return &Error{Kind: KindValidation, Reason: reason} }

// BadRequest reports an undecodable request body.
func BadRequest(err error) error { return &Error{Kind: KindBadRequest, Err: err} }


// Unavailable reports a backend that could not be reached.
func Unavailable(op string, err error) error { return &Error{Kind: KindUnavailable, Op: op, Err: err} }

// Timeout reports a backend operation that exceeded its deadline.
func Timeout(op string, err error) error { return &Error{Kind: KindTimeout, Op: op, Err: err} }

// BackendStatus reports a non-success HTTP status from the backend.
func BackendStatus(op string, status int, body string) error {
	if len(body) > maxBodyBytes {
		cut := maxBodyBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return &Error{Kind: KindBackendStatus, Op: op, Status: status, Body: body}
}

// Protocol reports a backend response that could not be interpreted.
func Protocol(op string, err error) error { return &Error{Kind: KindProtocol, Op: op, Err: err} }

// KindOf returns the kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// IsValidation reports whether err is a client validation fault.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// IsTimeout reports whether err is a backend deadline fault.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsBackendStatus reports whether err carries a non-success backend status.
func IsBackendStatus(err error) bool { return KindOf(err) == KindBackendStatus }

// IsProtocol reports whether the backend response was uninterpretable.
func IsProtocol(err error) bool { return KindOf(err) == KindProtocol }
