// Package password hashes and verifies user secrets.
//
// New hashes are produced with the configured algorithm. Verification picks
// the algorithm from the hash itself, so records written under an older
// algorithm or cost keep verifying after the configuration changes.
package password

import (
	"fmt"
	"strings"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
)

// Hasher hashes secrets and checks them against stored hashes
type Hasher interface {
	// Hash returns an encoded hash embedding its salt and cost parameters
	Hash(secret string) (string, error)

	// Verify reports whether secret matches hash. A malformed hash never
	// matches.
	Verify(secret, hash string) bool
}

// Algorithm names a hashing scheme
type Algorithm string

const (
	Bcrypt   Algorithm = "bcrypt"
	Argon2id Algorithm = "argon2id"
)

// Config holds configuration for the password service
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Params
}

// DefaultConfig returns default password configuration
func DefaultConfig() Config {
	return Config{
		Algorithm:  Bcrypt,
		BcryptCost: DefaultBcryptCost,
		Argon2:     DefaultArgon2Params(),
	}
}

// Service is the Hasher used by the rest of the application
type Service struct {
	algorithm Algorithm
	bcrypt    *BcryptHasher
	argon2    *Argon2Hasher
}

// Ensure Service implements Hasher
var _ Hasher = (*Service)(nil)

// New creates a password service
func New(cfg Config, rnd random.Random) (*Service, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = Bcrypt
	}
	if cfg.Algorithm != Bcrypt && cfg.Algorithm != Argon2id {
		return nil, fmt.Errorf("unknown password algorithm %q", cfg.Algorithm)
	}

	bh, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &Service{
		algorithm: cfg.Algorithm,
		bcrypt:    bh,
		argon2:    NewArgon2(cfg.Argon2, rnd),
	}, nil
}

// Hash hashes secret with the configured algorithm
func (s *Service) Hash(secret string) (string, error) {
	if s.algorithm == Argon2id {
		return s.argon2.Hash(secret)
	}
	return s.bcrypt.Hash(secret)
}

// Verify checks secret against a hash produced by any supported algorithm
func (s *Service) Verify(secret, hash string) bool {
	switch {
	case strings.HasPrefix(hash, argon2Prefix):
		return s.argon2.Verify(secret, hash)
	case isBcryptHash(hash):
		return s.bcrypt.Verify(secret, hash)
	default:
		return false
	}
}
