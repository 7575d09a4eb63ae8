// Package credential owns identity records: creation with a derived avatar,
// lookups and listing.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/clock"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// Service manages identity records
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	newID   func() model.IdentityID
}

// New creates a credential service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		newID: func() model.IdentityID {
			return model.IdentityID(uuid.NewString())
		},
	}
}

// Create stores a new identity. The password must already be hashed.
// Returns model.ErrDuplicateUsername if the username is taken, in which case
// nothing is written.
func (s *Service) Create(ctx context.Context, username, displayName, passwordHash string, gender model.Gender) (*model.Identity, error) {
	identity := &model.Identity{
		ID:              s.newID(),
		Username:        username,
		DisplayName:     displayName,
		PasswordHash:    passwordHash,
		Gender:          gender,
		ProfileImageURL: model.AvatarURL(username, gender),
		CreatedAt:       s.clock.Now(),
	}

	if err := s.storage.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

// FindByUsername returns the identity with the exact username, or
// model.ErrIdentityNotFound
func (s *Service) FindByUsername(ctx context.Context, username string) (*model.Identity, error) {
	return s.storage.GetIdentityByUsername(ctx, username)
}

// FindByID returns the identity with the given ID, or model.ErrIdentityNotFound
func (s *Service) FindByID(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	return s.storage.GetIdentity(ctx, id)
}

// ListAll returns every identity ordered by username
func (s *Service) ListAll(ctx context.Context) ([]*model.Identity, error) {
	return s.storage.ListIdentities(ctx)
}
