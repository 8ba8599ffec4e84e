package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
)

func TestPasswordHash(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = 14 })

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, VerifyPassword(hash, "battery staple"), apperrors.ErrInvalidCredentials)

	again, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt should differ per hash")
}

func TestPasswordLimits(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = 14 })

	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = VerifyPassword("plaintext-from-an-old-import", "plaintext-from-an-old-import")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret")
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	tok, err := m.Generate("abc123", "patient")
	require.NoError(t, err)

	claims, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc123", claims.Subject)
	assert.Equal(t, "abc123", claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	assert.Equal(t, issued.Add(30*24*time.Hour), claims.ExpiresAt.Time.UTC())

	m.now = func() time.Time { return issued.Add(TokenTTL - time.Minute) }
	_, err = m.Validate(tok)
	assert.NoError(t, err)

	m.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = m.Validate(tok)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}

func TestTokenRejectsForeignSignature(t *testing.T) {
	a, _ := NewTokenManager("secret-a")
	b, _ := NewTokenManager("secret-b")

	tok, err := a.Generate("u1", "doctor")
	require.NoError(t, err)

	_, err = b.Validate(tok)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = a.Validate("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	m, _ := NewTokenManager("secret")
	claims := &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("")
	assert.Error(t, err)
}
