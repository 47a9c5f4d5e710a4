package domain

import (
	"context"
	"strings"
	"time"
)

// User is an account in the credential store.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Validate checks the fields required before a user is persisted.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if len(u.Username) > 50 {
		return &ValidationError{Field: "username", Message: "username must be at most 50 characters"}
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > 100 {
		return &ValidationError{Field: "email", Message: "email must be at most 100 characters"}
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return &ValidationError{Field: "email", Message: "email is invalid"}
	}
	if u.PasswordHash == "" {
		return &ValidationError{Field: "password_hash", Message: "password hash is required"}
	}
	return nil
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// AuthService registers and authenticates users.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
