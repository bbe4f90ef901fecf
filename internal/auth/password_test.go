package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Tests use bcrypt.MinCost to keep hashing fast; the verification
// contract is cost-independent.
func testHasher() *Hasher {
	return NewHasher(bcrypt.MinCost)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	h := testHasher()

	hash, err := h.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, h.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, h.VerifyPassword("correct horse battery stapl", hash))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h := testHasher()

	first, err := h.HashPassword("s3cret-pass")
	require.NoError(t, err)
	second, err := h.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.VerifyPassword("s3cret-pass", first))
	assert.True(t, h.VerifyPassword("s3cret-pass", second))
}

func TestHashPassword_NeverStoresPlaintext(t *testing.T) {
	h := testHasher()

	hash, err := h.HashPassword("plaintext-password")
	require.NoError(t, err)
	assert.NotContains(t, hash, "plaintext-password")
}

func TestHashPassword_EmptyIsValidationError(t *testing.T) {
	h := testHasher()

	_, err := h.HashPassword("")
	require.ErrorIs(t, err, ErrValidation)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	h := testHasher()

	assert.False(t, h.VerifyPassword("whatever", ""))
	assert.False(t, h.VerifyPassword("whatever", "not-a-bcrypt-hash"))
	assert.False(t, h.VerifyPassword("whatever", "$2a$nonsense"))
}

func TestNewHasher_CostOutOfRangeFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}
