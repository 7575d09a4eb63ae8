package redis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/expense-tracker-go/internal/dependencies/clock"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Sessions are stored with a key TTL matching their expiry so Redis removes
// them on its own; the per-identity indexes are pruned by DeleteExpiredSessions.
type Storage struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis storage instance and verifies the connection
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable(err)
	}

	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	if clk == nil {
		clk = clock.New()
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		clock:  clk,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// unavailable tags a backend failure as a store availability problem
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	// Claim the username first; SETNX makes the check and the claim one step
	claimed, err := s.client.SetNX(ctx, usernameIndexKey(identity.Username), string(identity.ID), 0).Result()
	if err != nil {
		return unavailable(err)
	}
	if !claimed {
		return model.ErrDuplicateUsername
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, identityKey(identity.ID), data, 0)
		pipe.SAdd(ctx, identitiesIndexKey(), string(identity.ID))
		return nil
	})
	if err != nil {
		// Release the claim so the username is not burned by a failed insert
		_ = s.client.Del(context.WithoutCancel(ctx), usernameIndexKey(identity.Username)).Err()
		return unavailable(err)
	}
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, unavailable(err)
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, unavailable(err)
	}

	return s.GetIdentity(ctx, model.IdentityID(id))
}

func (s *Storage) ListIdentities(ctx context.Context) ([]*model.Identity, error) {
	ids, err := s.client.SMembers(ctx, identitiesIndexKey()).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(ids) == 0 {
		return []*model.Identity{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = identityKey(model.IdentityID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	identities := make([]*model.Identity, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var identity model.Identity
		if err := json.Unmarshal([]byte(str), &identity); err != nil {
			return nil, err
		}
		identities = append(identities, &identity)
	}

	slices.SortFunc(identities, func(a, b *model.Identity) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return identities, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		// Already expired: storing it would only resurrect a dead session
		return s.DeleteSession(ctx, session.Token)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.Token), data, ttl)
		pipe.ZAdd(ctx, identitySessionsKey(session.IdentityID), redis.Z{
			Score:  float64(session.ExpiresAt.Unix()),
			Member: session.Token,
		})
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return err
	}

	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return s.DeleteSession(ctx, token)
	}

	session.ExpiresAt = expiresAt
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// XX variants only touch keys that still exist, so a concurrent delete wins
	var updated *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		updated = pipe.SetXX(ctx, sessionKey(token), data, ttl)
		pipe.ZAddXX(ctx, identitySessionsKey(session.IdentityID), redis.Z{
			Score:  float64(expiresAt.Unix()),
			Member: token,
		})
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	if !updated.Val() {
		return model.ErrSessionNotFound
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, unavailable(err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	session, err := s.GetSession(ctx, token)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(token))
		pipe.ZRem(ctx, identitySessionsKey(session.IdentityID), token)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) DeleteSessionsForIdentity(ctx context.Context, id model.IdentityID) (int, error) {
	indexKey := identitySessionsKey(id)

	tokens, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, len(tokens))
	members := make([]any, len(tokens))
	for i, token := range tokens {
		keys[i] = sessionKey(token)
		members[i] = token
	}

	// Only the tokens read above are unindexed; a session saved in between
	// keeps its index entry and is caught by the next call
	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, indexKey, members...)
		return nil
	})
	if err != nil {
		return 0, unavailable(err)
	}
	return int(deleted.Val()), nil
}

// DeleteExpiredSessions prunes expired tokens from the per-identity indexes.
// The session keys themselves have already been removed by their TTL, so the
// count is the number of expired index entries cleaned up.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	maxScore := strconv.FormatInt(now.Unix(), 10)
	removed := 0

	iter := s.client.Scan(ctx, 0, identitySessionsPattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", maxScore).Result()
		if err != nil {
			return removed, unavailable(err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, unavailable(err)
	}
	return removed, nil
}

// Transaction operations

func (s *Storage) SaveTransaction(ctx context.Context, tx *model.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	key := transactionKey(tx.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, identityTransactionsKey(tx.IdentityID), key)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Storage) GetTransaction(ctx context.Context, id model.TransactionID) (*model.Transaction, error) {
	data, err := s.client.Get(ctx, transactionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, unavailable(err)
	}

	var tx model.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Storage) ListTransactions(ctx context.Context, identityID model.IdentityID) ([]*model.Transaction, error) {
	keys, err := s.client.SMembers(ctx, identityTransactionsKey(identityID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if len(keys) == 0 {
		return []*model.Transaction{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	txs := make([]*model.Transaction, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Deleted between SMEMBERS and MGET
		}
		var tx model.Transaction
		if err := json.Unmarshal([]byte(str), &tx); err != nil {
			return nil, err
		}
		txs = append(txs, &tx)
	}

	storage.SortTransactions(txs)
	return txs, nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, id model.TransactionID) error {
	tx, err := s.GetTransaction(ctx, id)
	if errors.Is(err, model.ErrTransactionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	key := transactionKey(id)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, identityTransactionsKey(tx.IdentityID), key)
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}
