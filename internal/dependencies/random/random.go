package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Random provides random value generation that can be mocked for testing
type Random interface {
	// Bytes returns n cryptographically random bytes
	Bytes(n int) ([]byte, error)

	// Token returns a URL-safe string encoding n random bytes
	Token(n int) (string, error)
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Bytes returns n bytes read from crypto/rand
func (r *CryptoRandom) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// Token returns n random bytes encoded with unpadded base64url
func (r *CryptoRandom) Token(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
