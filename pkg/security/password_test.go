package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(4)

	hash, err := hasher.Hash("Abcdef1!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "Abcdef1!", hash)

	assert.True(t, hasher.Verify("Abcdef1!", hash))
	assert.False(t, hasher.Verify("wrong-password", hash))
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := NewPasswordHasher(4)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-password", first))
	assert.True(t, hasher.Verify("same-password", second))
}

func TestPasswordHasher_ClampsInvalidCost(t *testing.T) {
	hasher := NewPasswordHasher(99)

	hash, err := hasher.Hash("whatever")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("whatever", hash))
}
