package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the server-side strength floor. Composition scoring is
// left to clients.
const MinPasswordLen = 8

// MaxPasswordBytes is the most bcrypt will hash. The limit is in bytes, so
// multi-byte characters count more than once.
const MaxPasswordBytes = 72

var (
	ErrHashingFailed    = errors.New("password hashing failed")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// MeetsPolicy reports whether password satisfies the length floor.
func MeetsPolicy(password string) bool {
	return len([]rune(password)) >= MinPasswordLen
}

// FitsHashLimit reports whether password is short enough for bcrypt.
func FitsHashLimit(password string) bool {
	return len(password) <= MaxPasswordBytes
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if !MeetsPolicy(password) {
		return "", ErrPasswordTooShort
	}
	if !FitsHashLimit(password) {
		return "", ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
