package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("abcd")
	require.NoError(t, err)

	assert.NotEqual(t, "abcd", digest)
	assert.True(t, h.Verify("abcd", digest))
	assert.False(t, h.Verify("wrong", digest))
	assert.False(t, h.Verify("", digest))
}

func TestHasher_SaltedDigestsDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("abcd")
	require.NoError(t, err)
	second, err := h.Hash("abcd")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("abcd", first))
	assert.True(t, h.Verify("abcd", second))
}

func TestHasher_LongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := strings.Repeat("x", 100)

	digest, err := h.Hash(long)
	require.NoError(t, err)

	assert.True(t, h.Verify(long, digest))
	assert.False(t, h.Verify(long[:72], digest))
}

func TestHasher_LegacyDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest := HashSHA256("abcd")

	assert.Equal(t, digest, HashSHA256("abcd"))
	assert.True(t, h.Verify("abcd", digest))
	assert.False(t, h.Verify("abce", digest))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}
