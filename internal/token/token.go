package token

// Package token generates opaque session identifiers.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// sessionIDBytes is the entropy of a session ID: 256 bits.
const sessionIDBytes = 32

// SessionIDLength is the length of the hex-encoded session ID string.
const SessionIDLength = sessionIDBytes * 2

// NewSessionID returns a new opaque session identifier: 32 bytes from the
// operating system CSPRNG, hex encoded to a fixed 64-character string. The
// value has no decodable structure and is never derived from time, counters,
// or request data.
func NewSessionID() (string, error) {
	var b [sessionIDBytes]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
