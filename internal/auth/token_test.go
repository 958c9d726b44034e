package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyToken(t *testing.T) {
	token, err := SignToken("secret", "u1")
	require.NoError(t, err)

	userID, err := VerifyToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := SignToken("secret", "u1")
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken("secret", "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierAdapter(t *testing.T) {
	token, err := SignToken("secret", "u1")
	require.NoError(t, err)

	userID, err := NewVerifier("secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}
