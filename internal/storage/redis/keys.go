package redis

import (
	"fmt"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// Key prefix for all expense tracker data
const keyPrefix = "expense"

// identityKey returns the Redis key for an Identity
func identityKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> identity_id index.
// It is written with SETNX and is the sole uniqueness gate for usernames.
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// identitiesIndexKey returns the Redis key for the SET of all identity IDs
func identitiesIndexKey() string {
	return fmt.Sprintf("%s:idx:identities", keyPrefix)
}

// sessionKey returns the Redis key for a Session
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// identitySessionsPattern matches every per-identity session index
const identitySessionsPattern = keyPrefix + ":idx:identity_sessions:*"

// identitySessionsKey returns the Redis key for the ZSET of an identity's
// session tokens scored by expiry (unix seconds)
func identitySessionsKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:idx:identity_sessions:%s", keyPrefix, id)
}

// transactionKey returns the Redis key for a Transaction
func transactionKey(id model.TransactionID) string {
	return fmt.Sprintf("%s:transaction:%s", keyPrefix, id)
}

// identityTransactionsKey returns the Redis key for the SET of an identity's transaction keys
func identityTransactionsKey(id model.IdentityID) string {
	return fmt.Sprintf("%s:idx:identity_transactions:%s", keyPrefix, id)
}
