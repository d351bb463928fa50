package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/service"
)

func newUserService(t *testing.T, users *mockUserRepo, tokens *mockTokenIssuer) *service.UserService {
	t.Helper()
	svc, err := service.NewUserService(users, tokens)
	require.NoError(t, err)
	return svc
}

// ---- Register --------------------------------------------------------------

func TestUserService_Register_OK(t *testing.T) {
	var captured domain.User
	svc := newUserService(t, &mockUserRepo{
		create: func(_ context.Context, u domain.User) (domain.User, error) {
			captured = u
			u.ID = uuid.New()
			return u, nil
		},
	}, nil)

	got, err := svc.Register(context.Background(), "  Test@Example.COM ", "testpass", " Test Name ")

	require.NoError(t, err)
	assert.Equal(t, "test@example.com", captured.Email)
	assert.Equal(t, "Test Name", captured.Name)
	assert.NotEqual(t, "testpass", captured.PasswordHash)
	assert.True(t, auth.CheckPassword(captured.PasswordHash, "testpass"))
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestUserService_Register_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantField string
	}{
		{"bad email", "nope", "testpass", "email"},
		{"empty email", "", "testpass", "email"},
		{"short password", "a@b.co", "pw", "password"},
		{"long password", "a@b.co", strings.Repeat("p", 257), "password"},
		{"long email", strings.Repeat("a", 250) + "@b.co", "testpass", "email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newUserService(t, &mockUserRepo{}, nil)

			_, err := svc.Register(context.Background(), tc.email, tc.password, "")

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, fieldsOf(t, err), tc.wantField)
		})
	}
}

func TestUserService_Register_Conflict(t *testing.T) {
	svc := newUserService(t, &mockUserRepo{
		create: func(context.Context, domain.User) (domain.User, error) {
			return domain.User{}, domain.ErrConflict
		},
	}, nil)

	_, err := svc.Register(context.Background(), "a@b.co", "testpass", "")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- IssueToken ------------------------------------------------------------

func registeredUser(t *testing.T, password string) domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return domain.User{ID: uuid.New(), Email: "test@example.com", PasswordHash: hash}
}

func TestUserService_IssueToken_OK(t *testing.T) {
	user := registeredUser(t, "testpass")
	expires := time.Now().Add(time.Hour)
	svc := newUserService(t,
		&mockUserRepo{getByEmail: func(_ context.Context, email string) (domain.User, error) {
			assert.Equal(t, "test@example.com", email)
			return user, nil
		}},
		&mockTokenIssuer{issue: func(userID uuid.UUID) (string, time.Time, error) {
			assert.Equal(t, user.ID, userID)
			return "signed", expires, nil
		}},
	)

	tok, err := svc.IssueToken(context.Background(), "TEST@example.com", "testpass")

	require.NoError(t, err)
	assert.Equal(t, "signed", tok.Value)
	assert.Equal(t, expires, tok.ExpiresAt)
}

func TestUserService_IssueToken_BadCredentials(t *testing.T) {
	user := registeredUser(t, "testpass")
	users := &mockUserRepo{getByEmail: func(_ context.Context, email string) (domain.User, error) {
		if email == user.Email {
			return user, nil
		}
		return domain.User{}, domain.ErrNotFound
	}}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "test@example.com", "wrongpass"},
		{"unknown email", "ghost@example.com", "testpass"},
		{"blank password", "test@example.com", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// issue is nil: a token must never be minted.
			svc := newUserService(t, users, &mockTokenIssuer{})

			_, err := svc.IssueToken(context.Background(), tc.email, tc.password)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, fieldsOf(t, err), "credentials")
		})
	}
}

// ---- Me --------------------------------------------------------------------

func TestUserService_Me(t *testing.T) {
	user := domain.User{ID: uuid.New(), Email: "test@example.com"}
	svc := newUserService(t, &mockUserRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.User, error) {
			assert.Equal(t, user.ID, id)
			return user, nil
		},
	}, nil)

	got, err := svc.Me(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, user, got)
}
