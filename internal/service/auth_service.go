package service

import (
	"context"
	"errors"
	"strings"

	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// dummyHash is compared against when the user does not exist so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type authService struct {
	users  domain.UserRepository
	logger domain.Logger
	cost   int
}

func NewAuthService(
	users domain.UserRepository,
	logger domain.Logger,
) *authService {
	return &authService{
		users:  users,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}
}

// Register validates the input, hashes the password and stores the user.
func (s *authService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if password == "" {
		return nil, apperrors.NewValidationError("password is required", "password")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", "password")
	}

	user := &domain.User{Username: username, Email: email, PasswordHash: "pending"}
	if err := user.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password is too long", "password")
		}
		return nil, apperrors.NewInternalError("Registration failed", err)
	}
	user.PasswordHash = string(hash)

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, apperrors.NewConflictError("Username or email already exists", err)
		}
		s.logger.Error("Failed to create user", err, "username", username)
		return nil, apperrors.NewInternalError("Registration failed", err)
	}

	s.logger.Info("User registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Authenticate checks the credentials. An unknown user and a wrong password
// produce the same error.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperrors.NewUnauthorizedError("Invalid credentials")
		}
		s.logger.Error("Failed to look up user", err, "username", username)
		return nil, apperrors.NewInternalError("Login failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func toValidationError(err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return apperrors.NewValidationError(ve.Message, ve.Field)
	}
	return apperrors.NewValidationError(err.Error())
}
