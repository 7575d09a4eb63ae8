package mocks

import (
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued tokens are returned first; once the queue is drained it falls back
// to real randomness so tests that don't care still get unique values.
type MockRandom struct {
	mu         sync.Mutex
	tokens     []string
	tokenIndex int
	bytes      [][]byte
	bytesIndex int
	FailNext   error
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Bytes returns the next queued value, n random bytes if none remain, or
// FailNext if set
func (r *MockRandom) Bytes(n int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	if r.bytesIndex < len(r.bytes) {
		b := r.bytes[r.bytesIndex]
		r.bytesIndex++
		return b, nil
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b, nil
}

// Token returns the next queued token, or a random one if none remain
func (r *MockRandom) Token(n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return "", err
	}
	if r.tokenIndex < len(r.tokens) {
		t := r.tokens[r.tokenIndex]
		r.tokenIndex++
		return t, nil
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, values...)
}

// QueueBytes adds values to the Bytes result queue
func (r *MockRandom) QueueBytes(values ...[]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes = append(r.bytes, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = nil
	r.tokenIndex = 0
	r.bytes = nil
	r.bytesIndex = 0
	r.FailNext = nil
}

func (r *MockRandom) takeFailure() error {
	err := r.FailNext
	r.FailNext = nil
	return err
}
