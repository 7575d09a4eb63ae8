package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation    = "23505"
	usernameConstraint = "identities_username_key"
	connectTimeout     = 5 * time.Second
	identityColumns    = "id, username, display_name, password_hash, gender, profile_image_url, created_at"
	transactionColumns = "id, identity_id, description, payment_type, category, amount, location, date"
)

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, verifies connectivity and ensures the schema exists
func New(ctx context.Context, cfg Config) (*Storage, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, unavailable(err)
	}

	s := NewWithPool(pool)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// NewWithPool creates a PostgreSQL storage with an existing pool
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close releases all pooled connections
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the tables and indexes if they do not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return classify(fmt.Errorf("ensure schema: %w", err))
	}
	return nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Ping(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return unavailable(err)
	}
	conn.Release()
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// classify passes through errors reported by the server (bad SQL, constraint
// violations) and marks everything else as the store being unreachable
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return unavailable(err)
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, identity.ID, identity.Username, identity.DisplayName, identity.PasswordHash,
		identity.Gender, identity.ProfileImageURL, identity.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == usernameConstraint {
			return model.ErrDuplicateUsername
		}
		return classify(err)
	}
	return nil
}

func scanIdentity(row pgx.Row) (*model.Identity, error) {
	var identity model.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.DisplayName,
		&identity.PasswordHash,
		&identity.Gender,
		&identity.ProfileImageURL,
		&identity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	identity.CreatedAt = identity.CreatedAt.UTC()
	return &identity, nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return identity, nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE username = $1`, username)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return identity, nil
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY username COLLATE "C"`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	identities := []*model.Identity{}
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, classify(err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return identities, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (token, identity_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, session.Token, session.IdentityID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *Storage) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sessions SET expires_at = $2 WHERE token = $1`, token, expiresAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := s.pool.QueryRow(ctx, `
		SELECT token, identity_id, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`, token).Scan(&session.Token, &session.IdentityID, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Storage) DeleteSessionsForIdentity(ctx context.Context, id model.IdentityID) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE identity_id = $1`, id)
	if err != nil {
		return 0, classify(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, classify(err)
	}
	return int(tag.RowsAffected()), nil
}

// Transaction operations

func (s *Storage) SaveTransaction(ctx context.Context, tx *model.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			description  = EXCLUDED.description,
			payment_type = EXCLUDED.payment_type,
			category     = EXCLUDED.category,
			amount       = EXCLUDED.amount,
			location     = EXCLUDED.location,
			date         = EXCLUDED.date
	`, tx.ID, tx.IdentityID, tx.Description, tx.PaymentType, tx.Category, tx.Amount, tx.Location, tx.Date)
	if err != nil {
		return classify(err)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.IdentityID,
		&tx.Description,
		&tx.PaymentType,
		&tx.Category,
		&tx.Amount,
		&tx.Location,
		&tx.Date,
	)
	if err != nil {
		return nil, err
	}
	tx.Date = tx.Date.UTC()
	return &tx, nil
}

func (s *Storage) GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrTransactionNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return tx, nil
}

func (s *Storage) ListTransactions(ctx context.Context, identityID model.IdentityID) ([]*model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE identity_id = $1
		ORDER BY date DESC, id DESC
	`, identityID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	txs := []*model.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, classify(err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return txs, nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, id model.TransactionID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return classify(err)
	}
	return nil
}
