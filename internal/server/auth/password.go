package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mneme/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxPasswordLen = 72

// HashPassword bcrypt-hashes password. Passwords over MaxPasswordLen bytes
// are rejected as common.ErrorInvalidInput.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password too long: %w", common.ErrorInvalidInput)
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes
// count as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when a username does not exist so both
// failure paths of a login cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("mneme-dummy-password"), bcrypt.DefaultCost)

// BurnPasswordCheck spends the time of one bcrypt comparison.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
