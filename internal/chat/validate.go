package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"chatd/internal/fault"
)

// DefaultMaxMessageLength is the message limit in code points.
const DefaultMaxMessageLength = 4000

// ErrEmptyMessageReason is the client-facing reason for an empty message.
const ErrEmptyMessageReason = "Message cannot be empty"

// ValidateMessage trims surrounding whitespace and bounds the message length
// in code points. Interior content is returned unchanged.
func ValidateMessage(raw string, maxRunes int) (string, error) {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxMessageLength
	}
	msg := strings.TrimSpace(raw)
	if msg == "" {
		return "", fault.Validation(ErrEmptyMessageReason)
	}
	if utf8.RuneCountInString(msg) > maxRunes {
		return "", fault.Validation(fmt.Sprintf("Message exceeds maximum length of %d characters", maxRunes))
	}
	return msg, nil
}
