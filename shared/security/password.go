// Package security hashes and verifies user passwords. Plaintext passwords
// must never be persisted or logged by callers.
package security

import (
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password must be provided")

// Hasher produces argon2id hashes with a fixed work factor.
type Hasher struct {
	config argon2.Config
}

// NewHasher returns a Hasher using the library's recommended argon2id parameters.
func NewHasher() *Hasher {
	return &Hasher{config: argon2.DefaultConfig()}
}

var defaultHasher = NewHasher()

// HashPassword hashes password with a random salt and returns the encoded hash.
func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(password, hash string) (bool, error) {
	return defaultHasher.Verify(password, hash)
}

// Hash hashes password and returns the PHC encoded argon2id string.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// Verify compares password against hash in constant time. Hashes written by
// the previous bcrypt based implementation are still accepted.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, nil
	}

	if isBcryptHash(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}

	return argon2.VerifyEncoded([]byte(password), []byte(hash))
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
