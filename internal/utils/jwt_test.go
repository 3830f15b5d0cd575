package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	assert.Empty(t, TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=query456", nil)
	assert.Equal(t, "query456", TokenFromRequest(r))

	// a malformed header falls through to the query parameter
	r = httptest.NewRequest("GET", "/ws?token=query456", nil)
	r.Header.Set("Authorization", "Token abc123")
	assert.Equal(t, "query456", TokenFromRequest(r))
}

func TestVerifyToken(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "u1", "name": "User One"}, secret)

	claims, err := VerifyToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", ClaimString(claims, "sub"))
	assert.Equal(t, "User One", ClaimString(claims, "name"))
}

func TestVerifyTokenRejectsEmptyToken(t *testing.T) {
	_, err := VerifyToken("", secret)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "u1"}, "other-secret")
	_, err := VerifyToken(tok, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	tok := sign(t, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, secret)
	_, err := VerifyToken(tok, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsUnsignedAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, verr := VerifyToken(tok, secret)
	assert.ErrorIs(t, verr, ErrInvalidToken)
}

func TestClaimString(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u1", "count": float64(3)}
	assert.Equal(t, "u1", ClaimString(claims, "sub"))
	assert.Empty(t, ClaimString(claims, "missing"))
	assert.Empty(t, ClaimString(claims, "count"))
}
