// Package storagetest holds the behaviour every storage backend must share.
// Backend packages run it from their own tests with a constructor for a
// fresh, empty store.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// Epoch is the reference "now" the suite writes sessions against. Backends
// that consult a clock must be constructed with one set to this time.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Suite runs the storage conformance tests
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func(t *testing.T) storage.Storage

	// Advance moves the backend's notion of time forward. Backends that
	// expire records on their own must set it; others may leave it nil.
	Advance func(d time.Duration)

	storage storage.Storage
	ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.storage = s.NewStorage(s.T())
	s.ctx = context.Background()
}

func (s *Suite) advance(d time.Duration) {
	if s.Advance != nil {
		s.Advance(d)
	}
}

func (s *Suite) createIdentity(id model.IdentityID, username string) *model.Identity {
	identity := &model.Identity{
		ID:              id,
		Username:        username,
		DisplayName:     "Display " + username,
		PasswordHash:    "hash-" + username,
		Gender:          model.GenderFemale,
		ProfileImageURL: model.AvatarURL(username, model.GenderFemale),
		CreatedAt:       Epoch,
	}
	s.Require().NoError(s.storage.CreateIdentity(s.ctx, identity))
	return identity
}

func (s *Suite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}

// Identity tests

func (s *Suite) TestCreateAndGetIdentity() {
	created := s.createIdentity("id-1", "alice")

	retrieved, err := s.storage.GetIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Equal(created.ID, retrieved.ID)
	s.Equal(created.Username, retrieved.Username)
	s.Equal(created.DisplayName, retrieved.DisplayName)
	s.Equal(created.PasswordHash, retrieved.PasswordHash)
	s.Equal(created.Gender, retrieved.Gender)
	s.Equal(created.ProfileImageURL, retrieved.ProfileImageURL)
	s.True(created.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.storage.GetIdentity(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestGetIdentityByUsername() {
	s.createIdentity("id-1", "alice")

	retrieved, err := s.storage.GetIdentityByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.IdentityID("id-1"), retrieved.ID)
}

func (s *Suite) TestGetIdentityByUsernameIsCaseSensitive() {
	s.createIdentity("id-1", "alice")

	_, err := s.storage.GetIdentityByUsername(s.ctx, "Alice")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestCreateIdentityDuplicateUsername() {
	s.createIdentity("id-1", "alice")

	err := s.storage.CreateIdentity(s.ctx, &model.Identity{
		ID:        "id-2",
		Username:  "alice",
		CreatedAt: Epoch,
	})
	s.ErrorIs(err, model.ErrDuplicateUsername)

	// The original record is untouched and the loser left nothing behind
	retrieved, err := s.storage.GetIdentityByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.IdentityID("id-1"), retrieved.ID)

	_, err = s.storage.GetIdentity(s.ctx, "id-2")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestConcurrentCreateSameUsername() {
	const attempts = 10

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.storage.CreateIdentity(s.ctx, &model.Identity{
				ID:        model.IdentityID(fmt.Sprintf("id-%d", i)),
				Username:  "contested",
				CreatedAt: Epoch,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(errors.Is(err, model.ErrDuplicateUsername), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)

	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Len(identities, 1)
}

func (s *Suite) TestListIdentitiesOrderedByUsername() {
	s.createIdentity("id-1", "carol")
	s.createIdentity("id-2", "alice")
	s.createIdentity("id-3", "bob")

	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 3)
	s.Equal("alice", identities[0].Username)
	s.Equal("bob", identities[1].Username)
	s.Equal("carol", identities[2].Username)
}

func (s *Suite) TestListIdentitiesByteOrder() {
	s.createIdentity("id-1", "bob")
	s.createIdentity("id-2", "_dev")
	s.createIdentity("id-3", "Zed")
	s.createIdentity("id-4", "alice")

	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)

	names := make([]string, len(identities))
	for i, identity := range identities {
		names[i] = identity.Username
	}
	s.Equal([]string{"Zed", "_dev", "alice", "bob"}, names)
}

func (s *Suite) TestListIdentitiesEmpty() {
	identities, err := s.storage.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.NotNil(identities)
	s.Empty(identities)
}

// Session tests

func (s *Suite) newSession(token string, id model.IdentityID, ttl time.Duration) *model.Session {
	session := &model.Session{
		Token:      token,
		IdentityID: id,
		CreatedAt:  Epoch,
		ExpiresAt:  Epoch.Add(ttl),
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))
	return session
}

func (s *Suite) TestSaveAndGetSession() {
	s.createIdentity("id-1", "alice")
	saved := s.newSession("token-1", "id-1", time.Hour)

	retrieved, err := s.storage.GetSession(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Equal(saved.Token, retrieved.Token)
	s.Equal(saved.IdentityID, retrieved.IdentityID)
	s.True(saved.CreatedAt.Equal(retrieved.CreatedAt))
	s.True(saved.ExpiresAt.Equal(retrieved.ExpiresAt))
}

func (s *Suite) TestSaveSessionExtendsExpiry() {
	s.createIdentity("id-1", "alice")
	session := s.newSession("token-1", "id-1", time.Hour)

	session.ExpiresAt = Epoch.Add(3 * time.Hour)
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	s.advance(2 * time.Hour)

	retrieved, err := s.storage.GetSession(s.ctx, "token-1")
	s.Require().NoError(err)
	s.True(session.ExpiresAt.Equal(retrieved.ExpiresAt))
}

func (s *Suite) TestExtendSession() {
	s.createIdentity("id-1", "alice")
	s.newSession("token-1", "id-1", time.Hour)

	extended := Epoch.Add(4 * time.Hour)
	s.Require().NoError(s.storage.ExtendSession(s.ctx, "token-1", extended))

	s.advance(2 * time.Hour)

	retrieved, err := s.storage.GetSession(s.ctx, "token-1")
	s.Require().NoError(err)
	s.True(extended.Equal(retrieved.ExpiresAt))
	s.Equal(model.IdentityID("id-1"), retrieved.IdentityID)
}

func (s *Suite) TestExtendDeletedSession() {
	s.createIdentity("id-1", "alice")
	s.newSession("token-1", "id-1", time.Hour)
	s.Require().NoError(s.storage.DeleteSession(s.ctx, "token-1"))

	err := s.storage.ExtendSession(s.ctx, "token-1", Epoch.Add(4*time.Hour))
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.storage.GetSession(s.ctx, "token-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteSession() {
	s.createIdentity("id-1", "alice")
	s.newSession("token-1", "id-1", time.Hour)

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "token-1"))

	_, err := s.storage.GetSession(s.ctx, "token-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Deleting again is not an error
	s.NoError(s.storage.DeleteSession(s.ctx, "token-1"))
}

func (s *Suite) TestDeleteSessionsForIdentity() {
	s.createIdentity("id-1", "alice")
	s.createIdentity("id-2", "bob")
	s.newSession("alice-1", "id-1", time.Hour)
	s.newSession("alice-2", "id-1", 2*time.Hour)
	s.newSession("bob-1", "id-2", time.Hour)

	count, err := s.storage.DeleteSessionsForIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Equal(2, count)

	_, err = s.storage.GetSession(s.ctx, "alice-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.storage.GetSession(s.ctx, "alice-2")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.storage.GetSession(s.ctx, "bob-1")
	s.NoError(err)

	count, err = s.storage.DeleteSessionsForIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *Suite) TestDeleteExpiredSessions() {
	s.createIdentity("id-1", "alice")
	s.newSession("short", "id-1", time.Hour)
	s.newSession("long", "id-1", 3*time.Hour)

	s.advance(2 * time.Hour)

	count, err := s.storage.DeleteExpiredSessions(s.ctx, Epoch.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.storage.GetSession(s.ctx, "short")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.storage.GetSession(s.ctx, "long")
	s.NoError(err)

	// The swept session no longer counts towards the identity
	count, err = s.storage.DeleteSessionsForIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Transaction tests

func (s *Suite) newTransaction(id model.TransactionID, owner model.IdentityID, amount float64, date time.Time) *model.Transaction {
	tx := &model.Transaction{
		ID:          id,
		IdentityID:  owner,
		Description: "Groceries",
		PaymentType: model.PaymentCard,
		Category:    "food",
		Amount:      amount,
		Location:    model.DefaultLocation,
		Date:        date,
	}
	s.Require().NoError(s.storage.SaveTransaction(s.ctx, tx))
	return tx
}

func (s *Suite) TestSaveAndGetTransaction() {
	s.createIdentity("id-1", "alice")
	saved := s.newTransaction("tx-1", "id-1", 42.5, Epoch)

	retrieved, err := s.storage.GetTransaction(s.ctx, "tx-1")
	s.Require().NoError(err)
	s.Equal(saved.ID, retrieved.ID)
	s.Equal(saved.IdentityID, retrieved.IdentityID)
	s.Equal(saved.Description, retrieved.Description)
	s.Equal(saved.PaymentType, retrieved.PaymentType)
	s.Equal(saved.Category, retrieved.Category)
	s.InDelta(saved.Amount, retrieved.Amount, 0.0001)
	s.Equal(saved.Location, retrieved.Location)
	s.True(saved.Date.Equal(retrieved.Date))
}

func (s *Suite) TestGetTransactionNotFound() {
	_, err := s.storage.GetTransaction(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrTransactionNotFound)
}

func (s *Suite) TestSaveTransactionOverwrites() {
	s.createIdentity("id-1", "alice")
	tx := s.newTransaction("tx-1", "id-1", 10, Epoch)

	tx.Amount = 99
	tx.Description = "Dinner"
	s.Require().NoError(s.storage.SaveTransaction(s.ctx, tx))

	retrieved, err := s.storage.GetTransaction(s.ctx, "tx-1")
	s.Require().NoError(err)
	s.InDelta(99.0, retrieved.Amount, 0.0001)
	s.Equal("Dinner", retrieved.Description)

	txs, err := s.storage.ListTransactions(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Len(txs, 1)
}

func (s *Suite) TestListTransactionsNewestFirst() {
	s.createIdentity("id-1", "alice")
	s.newTransaction("tx-old", "id-1", 1, Epoch.Add(-48*time.Hour))
	s.newTransaction("tx-new", "id-1", 2, Epoch)
	s.newTransaction("tx-mid", "id-1", 3, Epoch.Add(-24*time.Hour))

	txs, err := s.storage.ListTransactions(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	s.Equal(model.TransactionID("tx-new"), txs[0].ID)
	s.Equal(model.TransactionID("tx-mid"), txs[1].ID)
	s.Equal(model.TransactionID("tx-old"), txs[2].ID)
}

func (s *Suite) TestListTransactionsScopedToIdentity() {
	s.createIdentity("id-1", "alice")
	s.createIdentity("id-2", "bob")
	s.newTransaction("tx-1", "id-1", 1, Epoch)
	s.newTransaction("tx-2", "id-2", 2, Epoch)

	txs, err := s.storage.ListTransactions(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal(model.TransactionID("tx-1"), txs[0].ID)
}

func (s *Suite) TestListTransactionsEmpty() {
	s.createIdentity("id-1", "alice")

	txs, err := s.storage.ListTransactions(s.ctx, "id-1")
	s.Require().NoError(err)
	s.NotNil(txs)
	s.Empty(txs)
}

func (s *Suite) TestDeleteTransaction() {
	s.createIdentity("id-1", "alice")
	s.newTransaction("tx-1", "id-1", 1, Epoch)

	s.Require().NoError(s.storage.DeleteTransaction(s.ctx, "tx-1"))

	_, err := s.storage.GetTransaction(s.ctx, "tx-1")
	s.ErrorIs(err, model.ErrTransactionNotFound)

	txs, err := s.storage.ListTransactions(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Empty(txs)

	s.NoError(s.storage.DeleteTransaction(s.ctx, "tx-1"))
}
