package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// It is process-local and only suitable for development and tests.
type Storage struct {
	mu sync.RWMutex

	identities       map[model.IdentityID]*model.Identity
	usernameIndex    map[string]model.IdentityID
	sessions         map[string]*model.Session
	transactions     map[model.TransactionID]*model.Transaction
	identityTxnIndex map[model.IdentityID]map[model.TransactionID]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities:       make(map[model.IdentityID]*model.Identity),
		usernameIndex:    make(map[string]model.IdentityID),
		sessions:         make(map[string]*model.Session),
		transactions:     make(map[model.TransactionID]*model.Transaction),
		identityTxnIndex: make(map[model.IdentityID]map[model.TransactionID]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernameIndex[identity.Username]; taken {
		return model.ErrDuplicateUsername
	}
	stored := *identity
	s.identities[identity.ID] = &stored
	s.usernameIndex[identity.Username] = identity.ID
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	out := *identity
	return &out, nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	out := *s.identities[id]
	return &out, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identities := make([]*model.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out := *identity
		identities = append(identities, &out)
	}
	slices.SortFunc(identities, func(a, b *model.Identity) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return identities, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *Storage) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return model.ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteSessionsForIdentity(ctx context.Context, id model.IdentityID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.IdentityID == id {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Transaction operations

func (s *Storage) SaveTransaction(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *tx
	s.transactions[tx.ID] = &stored
	idx, ok := s.identityTxnIndex[tx.IdentityID]
	if !ok {
		idx = make(map[model.TransactionID]struct{})
		s.identityTxnIndex[tx.IdentityID] = idx
	}
	idx[tx.ID] = struct{}{}
	return nil
}

func (s *Storage) GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	out := *tx
	return &out, nil
}

func (s *Storage) ListTransactions(ctx context.Context, identityID model.IdentityID) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.identityTxnIndex[identityID]
	txs := make([]*model.Transaction, 0, len(idx))
	for id := range idx {
		out := *s.transactions[id]
		txs = append(txs, &out)
	}
	storage.SortTransactions(txs)
	return txs, nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, id model.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil
	}
	delete(s.transactions, id)
	delete(s.identityTxnIndex[tx.IdentityID], id)
	return nil
}
