package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeUnverified(t *testing.T) {
	t.Parallel()

	now := time.Now()
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "maria.gomez@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: 7,
		RoleID: 2,
	})

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, int64(2), claims.RoleID)
	require.Equal(t, "maria.gomez@example.com", claims.Subject)
	require.True(t, claims.HasRole())
}

func TestDecodeUnverifiedIgnoresSignature(t *testing.T) {
	t.Parallel()

	// Decoding reads the payload only; a token signed with an unknown
	// key still decodes. The backend is the authority on validity.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RoleID: 3}).
		SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	claims, err := DecodeUnverified(token)
	require.NoError(t, err)
	require.Equal(t, int64(3), claims.RoleID)
}

func TestDecodeUnverifiedMalformed(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "not-a-jwt", "a.b", "a.%%%.c"} {
		_, err := DecodeUnverified(token)
		require.Error(t, err, "token %q should not decode", token)
	}
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	require.False(t, (&Claims{}).HasRole())
	require.False(t, (&Claims{RoleID: -1}).HasRole())
	require.True(t, (&Claims{RoleID: 1}).HasRole())
}
