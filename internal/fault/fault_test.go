package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := Timeout("generate", context.DeadlineExceeded)
	wrapped := fmt.Errorf("chat: %w", base)

	assert.Equal(t, KindTimeout, KindOf(wrapped))
	assert.True(t, IsTimeout(wrapped))
	assert.False(t, IsUnavailable(wrapped))
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnexpected, KindOf(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Message cannot be empty", Validation("Message cannot be empty").Error())
	assert.Equal(t, "ollama ping: unavailable: connection refused",
		Unavailable("ping", errors.New("connection refused")).Error())
	assert.Equal(t, "ollama list: http 500: oops", BackendStatus("list", 500, "oops").Error())
}

func TestBackendStatusTruncatesBody(t *testing.T) {
	err := BackendStatus("generate", 502, strings.Repeat("x", maxBodyBytes+100))
	var fe *Error
	assert.True(t, errors.As(err, &fe))
	assert.Len(t, fe.Body, maxBodyBytes)
	assert.True(t, IsBackendStatus(err))
}

func TestBackendStatusTruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes; an odd prefix puts the byte cap mid-rune.
	body := "x" + strings.Repeat("é", maxBodyBytes)
	err := BackendStatus("generate", 502, body)
	var fe *Error
	assert.True(t, errors.As(err, &fe))
	assert.True(t, utf8.ValidString(fe.Body))
	assert.Equal(t, maxBodyBytes-1, len(fe.Body))
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindValidation:    "validation",
		KindBadRequest:    "bad_request",
		KindUnavailable:   "unavailable",
		KindTimeout:       "timeout",
		KindBackendStatus: "backend_status",
		KindProtocol:      "protocol",
		KindUnexpected:    "unexpected",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}
