package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for sign-in and for
// new accounts.
const MinPasswordLength = 6

// PasswordLongEnough reports whether plain has at least MinPasswordLength
// characters.
func PasswordLongEnough(plain string) bool {
	return utf8.RuneCountInString(plain) >= MinPasswordLength
}

// HashPassword returns a bcrypt hash of plain using cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
