package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Table errors
	ErrColumnNotFound = errors.New("column not found")
	ErrEmptyTable     = errors.New("table has no rows")
	ErrRaggedColumns  = errors.New("columns differ in length")

	// Analysis errors
	ErrDegenerateComparison = errors.New("degenerate comparison")
	ErrInsufficientData     = errors.New("insufficient data for analysis")

	// Key lifecycle errors
	ErrWeakPassphrase = errors.New("passphrase fails complexity policy")
	ErrInvalidKey     = errors.New("invalid key material")
	ErrBadPassphrase  = errors.New("passphrase does not unlock private key")

	// Ciphertext errors
	ErrCorruptCiphertext  = errors.New("corrupt ciphertext")
	ErrOutputPathConflict = errors.New("output path must differ from input path")
)

// Error constructors with context
func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

func NewWeakPassphraseError(reason string) error {
	return fmt.Errorf("%w: %s", ErrWeakPassphrase, reason)
}

func NewCorruptCiphertextError(detail string) error {
	return fmt.Errorf("%w: %s", ErrCorruptCiphertext, detail)
}

// Error checking helpers
func IsColumnNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

func IsKeyError(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrBadPassphrase) ||
		errors.Is(err, ErrWeakPassphrase)
}

func IsCiphertextError(err error) bool {
	return errors.Is(err, ErrCorruptCiphertext)
}
