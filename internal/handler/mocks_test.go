package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/handler"
)

// ---- mocks -----------------------------------------------------------------
// Set only the method fields your test needs; an unset one panics if reached.

type mockAttributeServicer struct {
	kind   domain.AttributeKind
	list   func(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error)
	create func(ctx context.Context, userID uuid.UUID, name string) (domain.Attribute, error)
}

func (m *mockAttributeServicer) Kind() domain.AttributeKind { return m.kind }
func (m *mockAttributeServicer) List(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error) {
	return m.list(ctx, userID)
}
func (m *mockAttributeServicer) Create(ctx context.Context, userID uuid.UUID, name string) (domain.Attribute, error) {
	return m.create(ctx, userID, name)
}

type mockCoffeeServicer struct {
	list    func(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error)
	get     func(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error)
	create  func(ctx context.Context, userID uuid.UUID, c domain.Coffee) (domain.Coffee, error)
	replace func(ctx context.Context, userID, id uuid.UUID, c domain.Coffee) (domain.Coffee, error)
	patch   func(ctx context.Context, userID, id uuid.UUID, p domain.CoffeePatch) (domain.Coffee, error)
	delete  func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockCoffeeServicer) List(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
	return m.list(ctx, userID)
}
func (m *mockCoffeeServicer) Get(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	return m.get(ctx, userID, id)
}
func (m *mockCoffeeServicer) Create(ctx context.Context, userID uuid.UUID, c domain.Coffee) (domain.Coffee, error) {
	return m.create(ctx, userID, c)
}
func (m *mockCoffeeServicer) Replace(ctx context.Context, userID, id uuid.UUID, c domain.Coffee) (domain.Coffee, error) {
	return m.replace(ctx, userID, id, c)
}
func (m *mockCoffeeServicer) Patch(ctx context.Context, userID, id uuid.UUID, p domain.CoffeePatch) (domain.Coffee, error) {
	return m.patch(ctx, userID, id, p)
}
func (m *mockCoffeeServicer) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

type mockUserServicer struct {
	register   func(ctx context.Context, email, password, name string) (domain.User, error)
	issueToken func(ctx context.Context, email, password string) (domain.AccessToken, error)
	me         func(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

func (m *mockUserServicer) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	return m.register(ctx, email, password, name)
}
func (m *mockUserServicer) IssueToken(ctx context.Context, email, password string) (domain.AccessToken, error) {
	return m.issueToken(ctx, email, password)
}
func (m *mockUserServicer) Me(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return m.me(ctx, userID)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

// compile-time checks
var (
	_ handler.AttributeServicer = (*mockAttributeServicer)(nil)
	_ handler.CoffeeServicer    = (*mockCoffeeServicer)(nil)
	_ handler.UserServicer      = (*mockUserServicer)(nil)
	_ handler.Pinger            = mockPinger{}
)

// ---- helpers ---------------------------------------------------------------

var errBoom = errors.New("boom")

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte(strings.Repeat("t", auth.MinSecretLength)), time.Hour)
	require.NoError(t, err)
	return tokens
}

// testAPI wires a Server the same way main.go does and hands out tokens.
type testAPI struct {
	t      *testing.T
	tokens *auth.TokenService
	h      http.Handler
}

type apiDeps struct {
	users   handler.UserServicer
	tags    handler.AttributeServicer
	items   handler.AttributeServicer
	coffees handler.CoffeeServicer
	store   handler.Pinger
}

func newTestAPI(t *testing.T, deps apiDeps) *testAPI {
	t.Helper()
	tokens := newTokens(t)
	srv := handler.NewServer(deps.users, deps.tags, deps.items, deps.coffees, tokens, deps.store)
	return &testAPI{t: t, tokens: tokens, h: srv.Routes()}
}

func (a *testAPI) tokenFor(userID uuid.UUID) string {
	a.t.Helper()
	tok, _, err := a.tokens.Issue(userID)
	require.NoError(a.t, err)
	return tok
}

// do sends a request as userID (uuid.Nil means anonymous).
func (a *testAPI) do(method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+a.tokenFor(userID))
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// doRaw sends a bodiless request with a literal Authorization header.
func (a *testAPI) doRaw(method, path, authorization string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}
