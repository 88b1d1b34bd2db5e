package auth

import (
	"crypto/subtle"
	"fmt"
	"os"

	"github.com/shopfloor/product-catalog/pkg/auth"
)

// CredentialVerifier checks an admin username/password pair. Implementations
// must compare against salted hashes, never plaintext.
type CredentialVerifier interface {
	Verify(username, password string) bool
}

// StaticVerifier verifies against a single admin account whose password is
// held as a bcrypt hash.
type StaticVerifier struct {
	username     string
	passwordHash string
}

// NewStaticVerifier creates a verifier for one admin account
func NewStaticVerifier(username, passwordHash string) *StaticVerifier {
	return &StaticVerifier{username: username, passwordHash: passwordHash}
}

// NewStaticVerifierFromEnv builds the verifier from ADMIN_USERNAME and
// ADMIN_PASSWORD_HASH. When only a plaintext ADMIN_PASSWORD is configured it
// is hashed once at startup so comparisons always run against a hash.
func NewStaticVerifierFromEnv() (*StaticVerifier, error) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			return nil, fmt.Errorf("auth: ADMIN_PASSWORD_HASH or ADMIN_PASSWORD must be set")
		}
		hashed, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("auth: failed to hash admin password: %w", err)
		}
		hash = hashed
	}

	return NewStaticVerifier(username, hash), nil
}

// Verify compares username and password in constant time
func (v *StaticVerifier) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(v.username), []byte(username)) == 1
	passwordMatch := auth.CheckPassword(v.passwordHash, password)
	return usernameMatch && passwordMatch
}
