package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes - предел bcrypt: более длинные пароли не хешируются.
const MaxPasswordBytes = 72

// ErrPasswordTooLong - пароль длиннее MaxPasswordBytes байт.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с bcrypt-хешем.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
