package storage

import (
	"context"
	"time"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations must be safe for concurrent use. Failures to reach the
// backing store are reported wrapping model.ErrStoreUnavailable.
type Storage interface {
	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error

	// Identity operations

	// CreateIdentity inserts a new identity. The username uniqueness check and
	// the insert are atomic; a taken username returns model.ErrDuplicateUsername
	// and leaves the store unchanged.
	CreateIdentity(ctx context.Context, identity *model.Identity) error
	GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error)
	// ListIdentities returns all identities ordered by username
	ListIdentities(ctx context.Context) ([]*model.Identity, error)

	// Session operations

	SaveSession(ctx context.Context, session *model.Session) error
	// ExtendSession moves an existing session's expiry. It never recreates a
	// session that has been deleted; a missing token returns
	// model.ErrSessionNotFound.
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	// GetSession returns the stored record without checking expiry
	GetSession(ctx context.Context, token string) (*model.Session, error)
	// DeleteSession is idempotent
	DeleteSession(ctx context.Context, token string) error
	// DeleteSessionsForIdentity removes every session of an identity and
	// returns how many were removed
	DeleteSessionsForIdentity(ctx context.Context, id model.IdentityID) (int, error)
	// DeleteExpiredSessions removes sessions whose expiry is at or before now
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Transaction operations

	SaveTransaction(ctx context.Context, tx *model.Transaction) error
	GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error)
	// ListTransactions returns an identity's transactions, newest date first
	ListTransactions(ctx context.Context, identityID model.IdentityID) ([]*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id model.TransactionID) error
}
