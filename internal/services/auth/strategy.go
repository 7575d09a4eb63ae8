package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// LocalStrategyName is the name of the built-in username/secret strategy
const LocalStrategyName = "local"

var ErrUnknownStrategy = errors.New("unknown authentication strategy")

// Credentials is what a caller presents to an authentication strategy
type Credentials struct {
	Username string
	Secret   string
}

// Strategy verifies credentials and resolves them to an identity.
// Every failure to verify is reported as model.ErrInvalidCredentials.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error)
}

// Registry maps strategy names to strategies
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates a registry holding the given strategies
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register adds a strategy, replacing any with the same name
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the named strategy
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names lists the registered strategy names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
