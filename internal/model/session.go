package model

import "time"

// Session is durable proof that an identity is logged in, keyed by an opaque token
type Session struct {
	Token      string
	IdentityID IdentityID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
