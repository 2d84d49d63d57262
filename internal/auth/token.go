// Package auth defines the opaque bearer session token: generation, the
// lexical profile checked before any store lookup, and the hash under which
// tokens are stored.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
)

// Session tokens are 32 random bytes hex encoded: 64 lowercase hex characters.
var tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ErrInvalidToken is returned for every token the service will not accept:
// malformed, unknown, expired, or revoked. Callers cannot distinguish the
// cases.
var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken generates a fresh session token.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WellFormed reports whether a presented token matches the lexical profile.
// Malformed tokens are rejected without ever reaching the session store.
func WellFormed(token string) bool {
	return tokenPattern.MatchString(token)
}

// HashToken returns the sha256 hex digest a token is stored under. Only the
// hash is persisted, so a leaked session store cannot be replayed directly.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
