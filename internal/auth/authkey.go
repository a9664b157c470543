package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrKeyMismatch is returned by Verify when the key does not match the hash.
var ErrKeyMismatch = errors.New("auth: auth key does not match")

// MaxKeyLength is the bcrypt input limit. Longer keys would be silently
// truncated, so they are refused instead.
const MaxKeyLength = 72

// KeyHasher hashes the auth keys users log in with. Keys are secrets handed
// out by an external identity provider, so they are treated like passwords.
type KeyHasher struct {
	cost int
}

func NewKeyHasher() *KeyHasher {
	return &KeyHasher{cost: bcrypt.DefaultCost}
}

// NewKeyHasherWithCost exists for tests, where the default cost makes every
// AddUser take tens of milliseconds.
func NewKeyHasherWithCost(cost int) *KeyHasher {
	return &KeyHasher{cost: cost}
}

func (h *KeyHasher) Hash(key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("auth: empty auth key")
	}
	if len(key) > MaxKeyLength {
		return nil, fmt.Errorf("auth: auth key must be %d bytes or fewer", MaxKeyLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hashing auth key: %w", err)
	}
	return hashed, nil
}

func (h *KeyHasher) Verify(hash []byte, key string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(key))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrKeyMismatch
		}
		return fmt.Errorf("auth: comparing auth key hash: %w", err)
	}
	return nil
}
