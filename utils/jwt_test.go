package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "u-1", "asha", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "asha", claims.Name)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "u-1", "asha", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenRejectsWrongSecretAndMethod(t *testing.T) {
	token, err := GenerateToken("secret", "u-1", "asha", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken("secret", unsigned)
	assert.Error(t, err)
}

func TestParseTokenRequiresUserID(t *testing.T) {
	token, err := GenerateToken("secret", "", "asha", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}
