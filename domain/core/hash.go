package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Domain-specific hash types
type (
	// DatasetHash fingerprints the exact cell contents of a table so a
	// report can be tied back to the data it was computed from.
	DatasetHash Hash
	// KeyFingerprint identifies a public key without exposing it.
	KeyFingerprint Hash
)
