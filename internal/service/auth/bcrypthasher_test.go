package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_Hash(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{}

	t.Run("hash generated ok", func(t *testing.T) {
		t.Parallel()

		hash, err := hasher.Hash("password")

		require.NoError(t, err)
		require.Len(t, hash, 60, "bcrypt hash should be 60 chars long")
		require.True(t, strings.HasPrefix(hash, "$2a$"), "bcrypt hash should start with $2a$")
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		t.Parallel()

		first, err := hasher.Hash("password")
		require.NoError(t, err)

		second, err := hasher.Hash("password")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "salted hashes should differ")
	})

	t.Run("long password allowed", func(t *testing.T) {
		t.Parallel()

		// Plain bcrypt caps input at 72 bytes. The sha256 prehash lifts the cap.
		long := strings.Repeat("long-password", 20)

		hash, err := hasher.Hash(long)

		require.NoError(t, err)
		require.NoError(t, hasher.Compare(hash, long))
	})
}

func TestBcryptHasher_Compare(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{}

	hash, err := hasher.Hash("password")
	require.NoError(t, err)

	t.Run("correct password ok", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, hasher.Compare(hash, "password"))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		t.Parallel()

		require.Error(t, hasher.Compare(hash, "not-the-password"))
	})

	t.Run("garbage hash fails", func(t *testing.T) {
		t.Parallel()

		require.Error(t, hasher.Compare("not-a-bcrypt-hash", "password"))
	})
}
