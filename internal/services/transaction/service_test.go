package transaction

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/mocks"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage/memory"
	"github.com/mcoot/expense-tracker-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) input(amount float64, daysAgo int) CreateInput {
	return CreateInput{
		Description: "Groceries",
		PaymentType: model.PaymentCard,
		Category:    "food",
		Amount:      amount,
		Location:    "Market",
		Date:        s.clock.Now().AddDate(0, 0, -daysAgo),
	}
}

func (s *ServiceSuite) create(owner model.IdentityID, in CreateInput) *model.Transaction {
	tx, err := s.service.Create(s.ctx, owner, in)
	s.Require().NoError(err)
	return tx
}

// Create tests

func (s *ServiceSuite) TestCreateUsesInjectedEntropy() {
	entropy := bytes.Repeat([]byte{0x2a}, ulidEntropyBytes)
	s.random.QueueBytes(entropy)

	tx := s.create("alice", s.input(12.5, 0))

	want := ulid.MustNew(ulid.Timestamp(s.clock.Now()), bytes.NewReader(entropy))
	s.Equal(model.TransactionID(want.String()), tx.ID)
}

func (s *ServiceSuite) TestCreateRandomFailure() {
	s.random.FailNext = errors.New("entropy exhausted")

	_, err := s.service.Create(s.ctx, "alice", s.input(12.5, 0))
	s.Require().Error(err)

	txs, err := s.storage.ListTransactions(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(txs)
}

func (s *ServiceSuite) TestCreate() {
	tx := s.create("alice", s.input(12.5, 0))

	_, err := ulid.ParseStrict(string(tx.ID))
	s.NoError(err, "transaction IDs are ULIDs")
	s.Equal(model.IdentityID("alice"), tx.IdentityID)
	s.Equal("Groceries", tx.Description)
	s.Equal(12.5, tx.Amount)
	s.Equal("Market", tx.Location)

	stored, err := s.storage.GetTransaction(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.Amount, stored.Amount)
}

func (s *ServiceSuite) TestCreateDefaultsLocation() {
	in := s.input(5, 0)
	in.Location = "  "

	tx := s.create("alice", in)
	s.Equal(model.DefaultLocation, tx.Location)
}

func (s *ServiceSuite) TestCreateValidation() {
	cases := []struct {
		name  string
		edit  func(in *CreateInput)
		field string
	}{
		{"blank description", func(in *CreateInput) { in.Description = " " }, "description"},
		{"unknown payment type", func(in *CreateInput) { in.PaymentType = "barter" }, "paymentType"},
		{"unknown category", func(in *CreateInput) { in.Category = "gambling" }, "category"},
		{"zero amount", func(in *CreateInput) { in.Amount = 0 }, "amount"},
		{"negative amount", func(in *CreateInput) { in.Amount = -3 }, "amount"},
		{"NaN amount", func(in *CreateInput) { in.Amount = math.NaN() }, "amount"},
		{"missing date", func(in *CreateInput) { in.Date = time.Time{} }, "date"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			in := s.input(10, 0)
			tc.edit(&in)

			_, err := s.service.Create(s.ctx, "alice", in)
			var ve *model.ValidationError
			s.Require().ErrorAs(err, &ve)
			s.Equal(tc.field, ve.Field)
		})
	}

	txs, err := s.service.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(txs)
}

// List / Get tests

func (s *ServiceSuite) TestListNewestFirst() {
	older := s.create("alice", s.input(1, 5))
	newest := s.create("alice", s.input(2, 0))
	middle := s.create("alice", s.input(3, 2))

	txs, err := s.service.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	s.Equal(newest.ID, txs[0].ID)
	s.Equal(middle.ID, txs[1].ID)
	s.Equal(older.ID, txs[2].ID)
}

func (s *ServiceSuite) TestListOnlyOwn() {
	s.create("alice", s.input(1, 0))
	s.create("bob", s.input(2, 0))

	txs, err := s.service.List(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal(model.IdentityID("bob"), txs[0].IdentityID)
}

func (s *ServiceSuite) TestGetOtherOwnersTransactionIsNotFound() {
	tx := s.create("alice", s.input(1, 0))

	_, err := s.service.Get(s.ctx, "bob", tx.ID)
	s.ErrorIs(err, model.ErrTransactionNotFound)

	found, err := s.service.Get(s.ctx, "alice", tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.ID, found.ID)
}

// Update tests

func (s *ServiceSuite) TestUpdatePartial() {
	tx := s.create("alice", s.input(10, 0))

	amount := 25.0
	category := model.Category("entertainment")
	updated, err := s.service.Update(s.ctx, "alice", tx.ID, UpdateInput{
		Amount:   &amount,
		Category: &category,
	})
	s.Require().NoError(err)
	s.Equal(25.0, updated.Amount)
	s.Equal(category, updated.Category)
	s.Equal("Groceries", updated.Description)

	stored, err := s.service.Get(s.ctx, "alice", tx.ID)
	s.Require().NoError(err)
	s.Equal(25.0, stored.Amount)
}

func (s *ServiceSuite) TestUpdateInvalidLeavesRecord() {
	tx := s.create("alice", s.input(10, 0))

	amount := -1.0
	_, err := s.service.Update(s.ctx, "alice", tx.ID, UpdateInput{Amount: &amount})
	s.True(model.IsValidationError(err))

	stored, err := s.service.Get(s.ctx, "alice", tx.ID)
	s.Require().NoError(err)
	s.Equal(10.0, stored.Amount)
}

func (s *ServiceSuite) TestUpdateOtherOwner() {
	tx := s.create("alice", s.input(10, 0))

	description := "hijacked"
	_, err := s.service.Update(s.ctx, "bob", tx.ID, UpdateInput{Description: &description})
	s.ErrorIs(err, model.ErrTransactionNotFound)
}

// Delete tests

func (s *ServiceSuite) TestDelete() {
	tx := s.create("alice", s.input(10, 0))

	deleted, err := s.service.Delete(s.ctx, "alice", tx.ID)
	s.Require().NoError(err)
	s.Equal(tx.ID, deleted.ID)

	_, err = s.service.Get(s.ctx, "alice", tx.ID)
	s.ErrorIs(err, model.ErrTransactionNotFound)
}

func (s *ServiceSuite) TestDeleteOtherOwner() {
	tx := s.create("alice", s.input(10, 0))

	_, err := s.service.Delete(s.ctx, "bob", tx.ID)
	s.ErrorIs(err, model.ErrTransactionNotFound)

	_, err = s.service.Get(s.ctx, "alice", tx.ID)
	s.NoError(err)
}

// Statistics tests

func (s *ServiceSuite) TestCategoryStatistics() {
	food := s.input(10, 0)
	s.create("alice", food)
	food.Amount = 5.5
	s.create("alice", food)

	rent := s.input(700, 1)
	rent.Category = "rent"
	s.create("alice", rent)

	other := s.input(99, 0)
	s.create("bob", other)

	stats, err := s.service.CategoryStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]model.CategoryTotal{
		{Category: "food", TotalAmount: 15.5},
		{Category: "rent", TotalAmount: 700},
	}, stats)
}

func (s *ServiceSuite) TestCategoryStatisticsEmpty() {
	stats, err := s.service.CategoryStatistics(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(stats)
}
