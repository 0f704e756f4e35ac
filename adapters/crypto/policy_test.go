package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabguard/domain/core"
)

func TestPassphrasePolicy_Validate(t *testing.T) {
	policy := DefaultPassphrasePolicy()

	cases := []struct {
		name       string
		passphrase string
		wantErr    string
	}{
		{"valid", "Str0ng-Passphrase!23", ""},
		{"too short", "Ab1", "shorter than"},
		{"no uppercase", "str0ng-passphrase", "uppercase"},
		{"no lowercase", "STR0NG-PASSPHRASE", "lowercase"},
		{"no digit", "Strong-Passphrase", "digit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.passphrase)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrWeakPassphrase)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPassphrasePolicy_PunctuationRule(t *testing.T) {
	policy := DefaultPassphrasePolicy()
	policy.RequirePunct = true

	err := policy.Validate("NoPunctuation123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "punctuation")

	assert.NoError(t, policy.Validate("With-Punctuation123"))
}

func TestPassphrasePolicy_ZeroValueAcceptsAnything(t *testing.T) {
	var policy PassphrasePolicy
	assert.NoError(t, policy.Validate(""))
}
