package utils

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates an opaque session identifier.
func NewSessionID() string { return uuid.NewString() }

// DecodeBase64 decodes uploaded file content. A data-URL prefix
// ("data:...;base64,") is tolerated and stripped.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.Contains(s[:i], ";base64") {
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// NowUTC is the single clock used for turn and note timestamps.
func NowUTC() time.Time { return time.Now().UTC() }
