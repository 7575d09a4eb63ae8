package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

type fixedStrategy struct {
	name     string
	identity *model.Identity
}

func (f fixedStrategy) Name() string { return f.name }

func (f fixedStrategy) Authenticate(ctx context.Context, creds Credentials) (*model.Identity, error) {
	return f.identity, nil
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(fixedStrategy{name: "local"}, fixedStrategy{name: "api-key"})

	s, err := r.Get("api-key")
	require.NoError(t, err)
	assert.Equal(t, "api-key", s.Name())

	assert.Equal(t, []string{"api-key", "local"}, r.Names())
}

func TestRegistryUnknownStrategy(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("oauth")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRegistryReplaces(t *testing.T) {
	r := NewRegistry(fixedStrategy{name: "local"})
	replacement := fixedStrategy{name: "local", identity: &model.Identity{ID: "id-1"}}
	r.Register(replacement)

	s, err := r.Get("local")
	require.NoError(t, err)
	identity, err := s.Authenticate(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Equal(t, model.IdentityID("id-1"), identity.ID)
}
