package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)

	assert.Equal(t, []byte(testSecret), tg.secret)
	assert.Equal(t, time.Hour, tg.AccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, tg.RefreshTokenExpiry())
}

func TestTokenGenerator_GenerateAndValidate(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)

	tests := []struct {
		name   string
		userID int
		role   int
	}{
		{name: "student", userID: 123, role: 1},
		{name: "admin", userID: 7, role: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access, refresh, err := tg.GenerateTokens(tt.userID, tt.role)
			require.NoError(t, err)
			assert.NotEqual(t, access, refresh)

			userID, role, err := tg.ValidateAccessToken(access)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, userID)
			assert.Equal(t, tt.role, role)

			assert.NoError(t, tg.ValidateRefreshToken(refresh))
		})
	}
}

func TestTokenGenerator_RefreshTokensAreUnique(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, time.Hour)

	_, first, err := tg.GenerateTokens(1, 1)
	require.NoError(t, err)
	_, second, err := tg.GenerateTokens(1, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenGenerator_WrongType(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, time.Hour)
	access, refresh, err := tg.GenerateTokens(1, 1)
	require.NoError(t, err)

	_, _, err = tg.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	err = tg.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestTokenGenerator_Expired(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Minute, time.Minute)
	tg.now = func() time.Time { return time.Now().Add(-time.Hour) }

	access, refresh, err := tg.GenerateTokens(1, 1)
	require.NoError(t, err)

	tg.now = time.Now
	_, _, err = tg.ValidateAccessToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.ErrorIs(t, tg.ValidateRefreshToken(refresh), jwt.ErrTokenExpired)
}

func TestTokenGenerator_InvalidSignature(t *testing.T) {
	issuer := NewTokenGenerator("other-secret", time.Hour, time.Hour)
	access, _, err := issuer.GenerateTokens(1, 2)
	require.NoError(t, err)

	tg := NewTokenGenerator(testSecret, time.Hour, time.Hour)
	_, _, err = tg.ValidateAccessToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, _, err = tg.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
