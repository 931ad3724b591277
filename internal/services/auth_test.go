package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "aero",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	tokens := testTokenService()
	hash, err := tokens.HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, tokens.VerifyPassword("s3cret!", hash))
	assert.False(t, tokens.VerifyPassword("wrong", hash))
}

func TestVerifyPasswordBcryptFallback(t *testing.T) {
	tokens := testTokenService()
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, tokens.VerifyPassword("legacy", string(hash)))
	assert.False(t, tokens.VerifyPassword("other", string(hash)))
}

func TestAccessTokenClaims(t *testing.T) {
	tokens := testTokenService()
	signed, exp, err := tokens.CreateAccessToken("user-1", "jsmith", []string{"TEACHER"})
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	token, claims, err := tokens.ParseToken(signed)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "access", claims["typ"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "jsmith", claims["username"])
}

func TestRefreshTokenType(t *testing.T) {
	tokens := testTokenService()
	signed, err := tokens.CreateRefreshToken("user-1")
	require.NoError(t, err)

	token, claims, err := tokens.ParseToken(signed)
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "refresh", claims["typ"])
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	tokens := testTokenService()
	other := TokenService{Secret: tokens.Secret, Issuer: "someone-else", AccessTTL: time.Minute}
	signed, _, err := other.CreateAccessToken("user-1", "jsmith", nil)
	require.NoError(t, err)

	_, _, err = tokens.ParseToken(signed)
	assert.Error(t, err)
}
