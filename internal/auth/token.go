// Package auth issues and validates the JWT tokens used by the API
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a refresh token is presented as an access token or vice versa
var ErrWrongTokenType = errors.New("wrong token type")

// Claims is the payload of access and refresh tokens
// Refresh tokens carry no user or role, they are resolved through the user_tokens table
type Claims struct {
	UserID int    `json:"user_id,omitempty"`
	Role   int    `json:"role,omitempty"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry, refreshExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

// AccessTokenExpiry returns the lifetime of access tokens
func (tg *TokenGenerator) AccessTokenExpiry() time.Duration { return tg.accessTokenExpiry }

// RefreshTokenExpiry returns the lifetime of refresh tokens
func (tg *TokenGenerator) RefreshTokenExpiry() time.Duration { return tg.refreshTokenExpiry }

// GenerateTokens generates an access token carrying userID and role, and an opaque refresh token
func (tg *TokenGenerator) GenerateTokens(userID int, role int) (string, string, error) {
	accessToken, err := tg.sign(Claims{UserID: userID, Role: role, Type: tokenTypeAccess}, tg.accessTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := tg.sign(Claims{Type: tokenTypeRefresh}, tg.refreshTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (tg *TokenGenerator) sign(claims Claims, ttl time.Duration) (string, error) {
	now := tg.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken validates an access token and returns the userID and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, int, error) {
	claims, err := tg.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return 0, 0, err
	}
	return claims.UserID, claims.Role, nil
}

// ValidateRefreshToken validates a refresh token
func (tg *TokenGenerator) ValidateRefreshToken(tokenString string) error {
	_, err := tg.parse(tokenString, tokenTypeRefresh)
	return err
}

func (tg *TokenGenerator) parse(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return tg.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tg.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Type != expectedType {
		return nil, fmt.Errorf("expected %s token: %w", expectedType, ErrWrongTokenType)
	}
	return claims, nil
}
