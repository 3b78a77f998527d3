// Package passhash implements salted password hashing and verification
// based on PBKDF2-HMAC-SHA256.
//
// Plaintext password buffers are owned by the caller and must be wiped
// (common.WipeByteArray) on every exit path, including error paths.
package passhash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the fixed salt size in bytes.
	SaltLength = 16
	// KeyLength is the fixed derived-key size in bytes.
	KeyLength = 32
	// DefaultIterations is the minimum acceptable PBKDF2 iteration count.
	DefaultIterations = 100_000
)

// Hasher derives and verifies password hashes. The zero value is not
// usable; construct with New.
type Hasher struct {
	iterations int
}

// New returns a Hasher with the given iteration count. Counts below
// DefaultIterations are raised to it.
func New(iterations int) *Hasher {
	if iterations < DefaultIterations {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// GenerateSalt returns SaltLength cryptographically secure random bytes.
// A fresh salt is required per credential and per password change.
func (h *Hasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Hash derives a KeyLength-byte key from the password and salt. The
// derivation is deterministic: the same (password, salt) pair always yields
// the same output.
func (h *Hasher) Hash(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, h.iterations, KeyLength, sha256.New)
}

// Verify recomputes the hash for (password, salt) and compares it with
// expectedHash in constant time. Any length mismatch fails closed.
func (h *Hasher) Verify(password, salt, expectedHash []byte) bool {
	if len(expectedHash) != KeyLength {
		return false
	}
	hash := h.Hash(password, salt)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
