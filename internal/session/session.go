// Package session mints and resolves the opaque identifiers used for
// consultations and transcript messages.
package session

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const (
	idPrefix     = "sess-"
	suffixLength = 10
	alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewID returns a fresh session identifier of the form
// "sess-" plus a random base-36 suffix. Uniqueness is probabilistic;
// a collision could only cross-talk two freshly started sessions, which
// the backend treats as one transcript anyway.
func NewID() string {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a uuid-derived suffix rather than returning an error nobody
		// can act on.
		return idPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return idPrefix + string(buf)
}

// ResolveActive picks the active session id: a non-empty persisted
// value (deep link, restored state) wins, otherwise the generator is
// invoked.
func ResolveActive(persisted string, generate func() string) string {
	if strings.TrimSpace(persisted) != "" {
		return persisted
	}
	return generate()
}

// NewMessageID returns a unique id for a transcript message.
func NewMessageID() string {
	return uuid.NewString()
}
