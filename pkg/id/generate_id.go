// Package id issues the public identifiers of purchasing aggregates.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

const size = 32

// New returns exactly 32 lowercase hex characters (no separators/prefixes).
func New() string {
	b := make([]byte, size/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Valid reports whether s has the shape New produces.
func Valid(s string) bool {
	if len(s) != size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
