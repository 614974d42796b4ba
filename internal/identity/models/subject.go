package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"compliance/internal/identity/saidnumber"
)

// SubjectHasher derives a stable pseudonymous key for an identity number so
// repeated checks of the same person can be correlated without storing the
// number itself.
type SubjectHasher struct {
	key []byte
}

func NewSubjectHasher(key string) SubjectHasher {
	return SubjectHasher{key: []byte(key)}
}

// Hash returns the hex HMAC-SHA256 of the normalised number when it has 13
// characters, else of the trimmed raw input.
func (h SubjectHasher) Hash(raw string) string {
	subject := saidnumber.Normalize(raw)
	if len(subject) != saidnumber.Length {
		subject = strings.TrimSpace(raw)
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(subject))
	return hex.EncodeToString(mac.Sum(nil))
}

// MaskedNumber renders raw for display without leaking more than the birth date.
func MaskedNumber(raw string) string {
	return saidnumber.Mask(saidnumber.Normalize(raw))
}
