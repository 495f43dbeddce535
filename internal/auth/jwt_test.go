package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	v := NewVerifier("test-secret")
	token := signToken(t, "test-secret", "user-42", time.Now().Add(time.Hour))

	userID, err := v.UserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("test-secret")
	token := signToken(t, "other-secret", "user-42", time.Now().Add(time.Hour))

	_, err := v.UserID(token)
	assert.Error(t, err)
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")
	token := signToken(t, "test-secret", "user-42", time.Now().Add(-time.Minute))

	_, err := v.UserID(token)
	assert.Error(t, err)
}

func TestVerifierRejectsEmptySubject(t *testing.T) {
	v := NewVerifier("test-secret")
	token := signToken(t, "test-secret", "", time.Now().Add(time.Hour))

	_, err := v.UserID(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRejectsGarbage(t *testing.T) {
	v := NewVerifier("test-secret")
	_, err := v.UserID("not-a-jwt")
	assert.Error(t, err)
}
