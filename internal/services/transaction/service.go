// Package transaction records and reports an identity's money movements.
// Every operation is scoped to the owning identity; another identity's
// transaction is indistinguishable from a missing one.
package transaction

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/clock"
	"github.com/mcoot/expense-tracker-go/internal/dependencies/random"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// CreateInput holds the fields of a new transaction
type CreateInput struct {
	Description string
	PaymentType model.PaymentType
	Category    model.Category
	Amount      float64
	Location    string
	Date        time.Time
}

// UpdateInput holds the fields to change; nil fields are left alone
type UpdateInput struct {
	Description *string
	PaymentType *model.PaymentType
	Category    *model.Category
	Amount      *float64
	Location    *string
	Date        *time.Time
}

// Service manages transactions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a transaction service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "transaction-service")),
	}
}

// ulidEntropyBytes is the size of a ULID's random component
const ulidEntropyBytes = 10

func (s *Service) newID() (model.TransactionID, error) {
	entropy, err := s.random.Bytes(ulidEntropyBytes)
	if err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	id, err := ulid.New(ulid.Timestamp(s.clock.Now()), bytes.NewReader(entropy))
	if err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return model.TransactionID(id.String()), nil
}

// Create records a new transaction for owner
func (s *Service) Create(ctx context.Context, owner model.IdentityID, in CreateInput) (*model.Transaction, error) {
	tx := &model.Transaction{
		IdentityID:  owner,
		Description: strings.TrimSpace(in.Description),
		PaymentType: in.PaymentType,
		Category:    in.Category,
		Amount:      in.Amount,
		Location:    strings.TrimSpace(in.Location),
		Date:        in.Date.UTC(),
	}
	if tx.Location == "" {
		tx.Location = model.DefaultLocation
	}
	if in.Date.IsZero() {
		return nil, model.NewValidationError("date", "is required")
	}
	if err := validate(tx); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	tx.ID = id

	if err := s.storage.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Debug("transaction created",
		slog.String("transaction_id", string(tx.ID)),
		slog.String("identity_id", string(owner)),
	)
	return tx, nil
}

// List returns owner's transactions, newest first
func (s *Service) List(ctx context.Context, owner model.IdentityID) ([]*model.Transaction, error) {
	return s.storage.ListTransactions(ctx, owner)
}

// Get returns one of owner's transactions
func (s *Service) Get(ctx context.Context, owner model.IdentityID, id model.TransactionID) (*model.Transaction, error) {
	tx, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IdentityID != owner {
		return nil, model.ErrTransactionNotFound
	}
	return tx, nil
}

// Update applies the non-nil fields of in to one of owner's transactions
func (s *Service) Update(ctx context.Context, owner model.IdentityID, id model.TransactionID, in UpdateInput) (*model.Transaction, error) {
	tx, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		tx.Description = strings.TrimSpace(*in.Description)
	}
	if in.PaymentType != nil {
		tx.PaymentType = *in.PaymentType
	}
	if in.Category != nil {
		tx.Category = *in.Category
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.Location != nil {
		tx.Location = strings.TrimSpace(*in.Location)
		if tx.Location == "" {
			tx.Location = model.DefaultLocation
		}
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, model.NewValidationError("date", "is required")
		}
		tx.Date = in.Date.UTC()
	}

	if err := validate(tx); err != nil {
		return nil, err
	}
	if err := s.storage.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Delete removes one of owner's transactions and returns it
func (s *Service) Delete(ctx context.Context, owner model.IdentityID, id model.TransactionID) (*model.Transaction, error) {
	tx, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return nil, err
	}
	return tx, nil
}

// CategoryStatistics sums owner's transaction amounts per category, ordered
// by category name
func (s *Service) CategoryStatistics(ctx context.Context, owner model.IdentityID) ([]model.CategoryTotal, error) {
	txs, err := s.storage.ListTransactions(ctx, owner)
	if err != nil {
		return nil, err
	}

	totals := make(map[model.Category]float64)
	for _, tx := range txs {
		totals[tx.Category] += tx.Amount
	}

	stats := make([]model.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		stats = append(stats, model.CategoryTotal{Category: category, TotalAmount: total})
	}
	slices.SortFunc(stats, func(a, b model.CategoryTotal) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return stats, nil
}

func validate(tx *model.Transaction) error {
	switch {
	case tx.Description == "":
		return model.NewValidationError("description", "is required")
	case !tx.PaymentType.Valid():
		return model.NewValidationError("paymentType", fmt.Sprintf("unknown payment type %q", tx.PaymentType))
	case !tx.Category.Valid():
		return model.NewValidationError("category", fmt.Sprintf("unknown category %q", tx.Category))
	case math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) || tx.Amount <= 0:
		return model.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}
