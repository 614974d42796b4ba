// Package secrets mints admin tokens and checks them against the bcrypt hash
// configured as server.admin_token_hash.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	dErrors "compliance/pkg/domain-errors"
)

// TokenPrefix marks generated admin tokens so they are recognisable in
// secret scanners and leaked-credential reports.
const TokenPrefix = "cadm_"

const tokenEntropyBytes = 32

// Generate returns TokenPrefix followed by 32 random bytes, base64url encoded.
func Generate() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash bcrypts secret. Empty secrets and ones longer than bcrypt's 72 byte
// input limit are invalid input.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
	case err != nil:
		return "", fmt.Errorf("bcrypt secret: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when secret matches hash and an invalid input error when
// it does not.
func Verify(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return dErrors.New(dErrors.CodeInvalidInput, "invalid secret")
	default:
		return fmt.Errorf("compare secret: %w", err)
	}
}

// MatchesHash returns a predicate accepting secrets that match hash. An empty
// hash accepts nothing. The SHA-256 digest of the last accepted secret is kept
// so repeated admin calls with the same token skip bcrypt.
func MatchesHash(hash string) func(string) bool {
	if hash == "" {
		return func(string) bool { return false }
	}
	var (
		mu       sync.Mutex
		accepted [sha256.Size]byte
		have     bool
	)
	return func(secret string) bool {
		digest := sha256.Sum256([]byte(secret))
		mu.Lock()
		known := have && subtle.ConstantTimeCompare(digest[:], accepted[:]) == 1
		mu.Unlock()
		if known {
			return true
		}
		if Verify(secret, hash) != nil {
			return false
		}
		mu.Lock()
		accepted, have = digest, true
		mu.Unlock()
		return true
	}
}
