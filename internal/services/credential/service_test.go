package credential

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreate() {
	identity, err := s.service.Create(s.ctx, "alice", "Alice A.", "hash", model.GenderFemale)
	s.Require().NoError(err)

	_, err = uuid.Parse(string(identity.ID))
	s.NoError(err, "identity IDs are UUIDs")
	s.Equal("alice", identity.Username)
	s.Equal("Alice A.", identity.DisplayName)
	s.Equal("hash", identity.PasswordHash)
	s.Equal(s.clock.Now(), identity.CreatedAt)
	s.Equal("https://avatar.iran.liara.run/public/girl?username=alice", identity.ProfileImageURL)

	stored, err := s.storage.GetIdentity(s.ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal(identity.ProfileImageURL, stored.ProfileImageURL)
}

func (s *ServiceSuite) TestCreateMaleAvatar() {
	identity, err := s.service.Create(s.ctx, "bob smith", "Bob", "hash", model.GenderMale)
	s.Require().NoError(err)
	s.Equal("https://avatar.iran.liara.run/public/boy?username=bob+smith", identity.ProfileImageURL)
}

func (s *ServiceSuite) TestCreateDuplicateUsername() {
	first, err := s.service.Create(s.ctx, "alice", "Alice", "hash", model.GenderFemale)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, "alice", "Other", "hash2", model.GenderMale)
	s.ErrorIs(err, model.ErrDuplicateUsername)

	identities, err := s.service.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 1)
	s.Equal(first.ID, identities[0].ID)
	s.Equal("Alice", identities[0].DisplayName)
}

func (s *ServiceSuite) TestUsernamesAreCaseSensitive() {
	_, err := s.service.Create(s.ctx, "alice", "Alice", "hash", model.GenderFemale)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, "Alice", "Alice", "hash", model.GenderFemale)
	s.NoError(err)
}

func (s *ServiceSuite) TestFindByUsername() {
	created, _ := s.service.Create(s.ctx, "alice", "Alice", "hash", model.GenderFemale)

	found, err := s.service.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.service.FindByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *ServiceSuite) TestFindByID() {
	created, _ := s.service.Create(s.ctx, "alice", "Alice", "hash", model.GenderFemale)

	found, err := s.service.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("alice", found.Username)

	_, err = s.service.FindByID(s.ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *ServiceSuite) TestListAllOrderedByUsername() {
	_, _ = s.service.Create(s.ctx, "zed", "Zed", "hash", model.GenderMale)
	_, _ = s.service.Create(s.ctx, "amy", "Amy", "hash", model.GenderFemale)

	identities, err := s.service.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 2)
	s.Equal("amy", identities[0].Username)
	s.Equal("zed", identities[1].Username)
}
