package id

import (
	"github.com/google/uuid"
)

// RequestID returns a new random identifier for correlating a single request's
// log lines. The value is a lowercase UUIDv4 string.
func RequestID() string {
	return uuid.NewString()
}

// Short returns the first segment of an identifier, enough to eyeball-match
// log lines without the full UUID.
func Short(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			return id[:i]
		}
	}
	return id
}
