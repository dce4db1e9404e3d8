package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the hashing cost used when none is configured.
const DefaultBcryptCost = 12

// Hasher hashes and verifies passwords using bcrypt with an optional pepper.
type Hasher struct {
	cost   int
	pepper string
}

// NewHasher creates a password hasher. Cost must be within bcrypt's
// practical range of 10 to 14.
func NewHasher(cost int, pepper string) (*Hasher, error) {
	if cost < 10 || cost > 14 {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cost)
	}
	return &Hasher{cost: cost, pepper: pepper}, nil
}

// HashPassword hashes a password, appending the pepper when one is set.
func (h *Hasher) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+h.pepper), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash.
func (h *Hasher) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+h.pepper)) == nil
}
