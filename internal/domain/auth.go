package domain

import (
	"context"
	"time"
)

// Session is the server-held identity bound to a browser cookie.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions by opaque token. Implementations must be safe
// for concurrent use.
type SessionStore interface {
	Get(ctx context.Context, token string) (*Session, error)
	Set(ctx context.Context, token string, session *Session, ttl time.Duration) error
	Clear(ctx context.Context, token string) error
}
