package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost. Out of range costs fall back
// to the build default.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return BcryptHasher{cost: cost}
}

// Cost returns the bcrypt work factor
func (h BcryptHasher) Cost() int {
	if h.cost == 0 {
		return passwordHashCost()
	}
	return h.cost
}

// Hash will generate a password hash
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", NewError(ErrInvalidInput, "password cannot be empty", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", NewError(ErrInvalidInput, "password is too long", err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Matches will validate the given cleartext password matches the hash
func (h BcryptHasher) Matches(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RandomPasswordHash hashes a random password. It never matches any
// password a client can send.
func RandomPasswordHash(h PasswordHasher) string {
	hash, err := h.Hash(uuid.NewString())
	if err != nil {
		return ""
	}
	return hash
}

var _ PasswordHasher = BcryptHasher{}
