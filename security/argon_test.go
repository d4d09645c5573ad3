package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	a := New()

	hash, err := a.HashPasswd("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := a.VerifyPasswd("correct horse battery staple", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.VerifyPasswd("wrong password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	a := New()

	h1, err := a.HashPasswd("same password")
	require.NoError(t, err)
	h2, err := a.HashPasswd("same password")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	a := New()

	for _, e := range []string{
		"",
		"not a hash",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
	} {
		_, err := a.VerifyPasswd("whatever", e)
		require.Error(t, err)
	}
}
