package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/sehaty-api/internal/apperrors"
)

// PasswordCost is the bcrypt cost factor. Tests lower it to bcrypt.MinCost.
var PasswordCost = 14

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns the bcrypt hash stored on the user document.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", apperrors.ErrValidation, MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword returns apperrors.ErrInvalidCredentials when password does
// not match hash, and a distinct error when hash is not a bcrypt hash.
func VerifyPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return apperrors.ErrInvalidCredentials
	default:
		return fmt.Errorf("stored password hash: %w", err)
	}
}
