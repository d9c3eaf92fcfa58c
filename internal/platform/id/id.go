// Package id generates URL-safe random identifiers for persisted records.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// NewID returns a 26-character lowercase base32 identifier backed by 128 bits
// of entropy from crypto/rand.
func NewID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return strings.ToLower(encoded), nil
}

// MustNewID returns a new identifier or panics when entropy is unavailable.
// It is intended for wiring code where an entropy failure is unrecoverable.
func MustNewID() string {
	value, err := NewID()
	if err != nil {
		panic(err)
	}
	return value
}
