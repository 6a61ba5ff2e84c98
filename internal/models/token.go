package models

import (
	"time"

	"github.com/google/uuid"
)

// Token is a stored bearer token record
// The plaintext secret is never stored, only its hash
type Token struct {
	ID        int64
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Owner returns id of the user the token authenticates as
func (t Token) Owner() uuid.UUID {
	return t.UserID
}

// IsExpired reports whether the token must be treated as logically deleted at 'now'
// Token expires exactly at ExpiresAt: it is not valid anymore at that moment
func (t Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Token issued to the user
// Value is the plaintext secret and it is available only once: right after issuing
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
