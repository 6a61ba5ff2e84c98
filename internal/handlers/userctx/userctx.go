package userctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const sessionKey ctxKey = "session"

// Authenticated request data
type Session struct {
	UserID uuid.UUID

	// Token secret the request was authenticated with
	Token string
}

// Create a new context with the session
func New(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Extract the session from the context
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
