package password

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
)

const argon2Prefix = "$argon2id$"

// Upper bounds accepted from a stored hash. They are fixed rather than derived
// from the current params so that lowering the cost keeps old hashes valid.
const (
	maxArgon2MemoryKiB   = 1024 * 1024
	maxArgon2Iterations  = 32
	maxArgon2Parallelism = 16
)

// Argon2Params controls Argon2id hashing cost. MemoryKiB is in KiB as
// required by argon2.IDKey.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns a baseline suitable for interactive logins
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher produces PHC encoded Argon2id hashes:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
type Argon2Hasher struct {
	params Argon2Params
	random random.Random
}

// NewArgon2 creates an Argon2id hasher; zero params select the defaults
func NewArgon2(params Argon2Params, rnd random.Random) *Argon2Hasher {
	if params == (Argon2Params{}) {
		params = DefaultArgon2Params()
	}
	return &Argon2Hasher{params: params, random: rnd}
}

func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt, err := h.random.Bytes(int(h.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(secret, hash string) bool {
	params, salt, expected, ok := decodeArgon2(hash)
	if !ok {
		return false
	}

	// A planted hash must not be able to pin the CPU or exhaust memory
	if params.MemoryKiB > maxArgon2MemoryKiB ||
		params.Iterations > maxArgon2Iterations ||
		params.Parallelism > maxArgon2Parallelism {
		return false
	}

	key := argon2.IDKey([]byte(secret), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, bool) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, false
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Argon2Params{}, nil, nil, false
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return Argon2Params{}, nil, nil, false
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return Argon2Params{}, nil, nil, false
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return Argon2Params{}, nil, nil, false
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return Argon2Params{}, nil, nil, false
	}

	return Argon2Params{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, true
}
