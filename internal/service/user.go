package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/repo"
	"github.com/pkordes/coffee-api/internal/validation"
)

const badCredentials = "unable to authenticate with provided credentials"

// registration holds the rules for a new account. Password length is counted
// in characters; 256 keeps any password within auth.MaxPasswordLength bytes.
type registration struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"min=5,max=256"`
	Name     string `json:"name" validate:"max=255"`
}

// TokenIssuer mints access tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// UserService registers accounts and exchanges credentials for tokens.
type UserService struct {
	users  repo.UserRepo
	tokens TokenIssuer
	v      *validation.Validator

	// dummyHash is checked against when the email is unknown so that a miss
	// costs as much as a wrong password.
	dummyHash string
}

// NewUserService constructs a UserService.
func NewUserService(users repo.UserRepo, tokens TokenIssuer) (*UserService, error) {
	dummy, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("service.NewUserService: %w", err)
	}
	return &UserService{users: users, tokens: tokens, v: validation.New(), dummyHash: dummy}, nil
}

// Register creates a user. The email is stored lower-cased and must be
// unique; a taken email yields domain.ErrConflict.
func (s *UserService) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if err := s.v.Validate(registration{Email: email, Password: password, Name: name}); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}

	u, err := s.users.Create(ctx, domain.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Register: %w", err)
	}
	return u, nil
}

// Authenticate returns the user whose credentials match. Any mismatch,
// including an unknown email, is a validation error with the same message.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, domain.NewValidationError("credentials", badCredentials)
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		auth.CheckPassword(s.dummyHash, password)
		return domain.User{}, domain.NewValidationError("credentials", badCredentials)
	case err != nil:
		return domain.User{}, fmt.Errorf("service.UserService.Authenticate: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return domain.User{}, domain.NewValidationError("credentials", badCredentials)
	}
	return u, nil
}

// IssueToken authenticates the credentials and returns a fresh access token.
func (s *UserService) IssueToken(ctx context.Context, email, password string) (domain.AccessToken, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return domain.AccessToken{}, err
	}

	value, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		return domain.AccessToken{}, fmt.Errorf("service.UserService.IssueToken: %w", err)
	}
	return domain.AccessToken{Value: value, ExpiresAt: expires}, nil
}

// Me returns the authenticated user's own record.
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	return u, nil
}
