package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher wraps bcrypt hashing and verification. With legacy enabled,
// stored values that are not bcrypt hashes are compared as plaintext.
type PasswordHasher struct {
	cost   int
	legacy bool
}

func NewPasswordHasher(cost int, legacy bool) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost, legacy: legacy}
}

func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *PasswordHasher) Verify(plain, stored string) error {
	if isBcrypt(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)); err != nil {
			return ErrPasswordMismatch
		}
		return nil
	}
	if h.legacy && subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

func isBcrypt(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
