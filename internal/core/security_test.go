// TrustGuardianHub | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordTimingSafeNilHash(t *testing.T) {
	ok, rehash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestNewShortID(t *testing.T) {
	seen := make(map[string]bool)

	for range 50 {
		id, err := NewShortID(10)
		require.NoError(t, err)
		require.Len(t, id, 10)

		for _, c := range id {
			assert.True(t, strings.ContainsRune(shortIDAlphabet, c),
				"unexpected character %q in id %s", c, id)
		}

		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestShortIDSamplingIsUnbiased(t *testing.T) {
	// The rejection threshold must be a multiple of the alphabet size,
	// otherwise the modulo step favors the leading characters.
	assert.Equal(t, 0, shortIDLimit%len(shortIDAlphabet))
	assert.LessOrEqual(t, shortIDLimit, 256)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	hash := HashToken(token)
	assert.Equal(t, hash, HashToken(token))
	assert.True(t, CompareTokenHash(token, hash))
	assert.False(t, CompareTokenHash("other", hash))
}
