package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "admin", "admin", "s3cret", 5)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(7, "admin", "admin", "s3cret", 5)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(7, "admin", "admin", "s3cret", -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "s3cret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenCarriesTokenID(t *testing.T) {
	token, err := GenerateRefreshToken(3, "abc-123", "refresh", 1)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, "refresh")
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "abc-123", claims.TokenID)
}
