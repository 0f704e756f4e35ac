package crypto

import (
	"fmt"
	"unicode"

	"tabguard/domain/core"
)

// PassphrasePolicy is the configurable minimum-complexity rule set applied
// before a key pair is generated.
type PassphrasePolicy struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
	RequirePunct bool
}

// DefaultPassphrasePolicy returns the policy used when callers do not
// supply their own: at least 10 characters with upper, lower, and digit.
func DefaultPassphrasePolicy() PassphrasePolicy {
	return PassphrasePolicy{
		MinLength:    10,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate checks a passphrase against the policy, returning a
// WeakPassphrase error naming the first failed rule.
func (p PassphrasePolicy) Validate(passphrase string) error {
	if len(passphrase) < p.MinLength {
		return core.NewWeakPassphraseError(
			fmt.Sprintf("shorter than %d characters", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasPunct bool
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasPunct = true
		}
	}

	if p.RequireUpper && !hasUpper {
		return core.NewWeakPassphraseError("missing uppercase character")
	}
	if p.RequireLower && !hasLower {
		return core.NewWeakPassphraseError("missing lowercase character")
	}
	if p.RequireDigit && !hasDigit {
		return core.NewWeakPassphraseError("missing digit")
	}
	if p.RequirePunct && !hasPunct {
		return core.NewWeakPassphraseError("missing punctuation character")
	}
	return nil
}
