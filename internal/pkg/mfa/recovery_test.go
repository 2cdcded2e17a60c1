package mfa

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recoveryCodeFormat = regexp.MustCompile(`^[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{4}$`)

func TestRecoveryCode_Generate(t *testing.T) {
	gen := NewRecoveryCode()

	for _, n := range []int{1, DefaultRecoveryCodeCount, MaxRecoveryCodeCount} {
		codes, err := gen.Generate(n)
		require.NoError(t, err)
		require.Len(t, codes, n)

		seen := make(map[string]struct{}, n)
		for _, c := range codes {
			assert.Regexp(t, recoveryCodeFormat, c)
			_, dup := seen[c]
			assert.False(t, dup, "duplicate code %q", c)
			seen[c] = struct{}{}
		}
	}
}

func TestRecoveryCode_GenerateInvalidCount(t *testing.T) {
	gen := NewRecoveryCode()

	for _, n := range []int{-1, 0, MaxRecoveryCodeCount + 1} {
		_, err := gen.Generate(n)
		assert.ErrorIs(t, err, ErrInvalidRecoveryCodeCount)
	}
}

func TestRecoveryCode_BatchesDiffer(t *testing.T) {
	gen := NewRecoveryCode()

	a, err := gen.Generate(DefaultRecoveryCodeCount)
	require.NoError(t, err)
	b, err := gen.Generate(DefaultRecoveryCodeCount)
	require.NoError(t, err)

	for _, c := range a {
		assert.NotContains(t, b, c)
	}
}

func TestNormalizeRecoveryCode(t *testing.T) {
	assert.Equal(t, "abCD-1234-xyZ9", NormalizeRecoveryCode("  abCD-1234-xyZ9\n"))
}
