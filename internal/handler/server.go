// Package handler implements the HTTP handlers for the Coffee API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, coffee.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/validation"
)

// AttributeServicer defines the operations the tag and item handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the store or service layer.
type AttributeServicer interface {
	Kind() domain.AttributeKind
	List(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (domain.Attribute, error)
}

// CoffeeServicer defines the business operations the coffee handler depends on.
type CoffeeServicer interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error)
	Get(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error)
	Create(ctx context.Context, userID uuid.UUID, c domain.Coffee) (domain.Coffee, error)
	Replace(ctx context.Context, userID, id uuid.UUID, c domain.Coffee) (domain.Coffee, error)
	Patch(ctx context.Context, userID, id uuid.UUID, p domain.CoffeePatch) (domain.Coffee, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// UserServicer defines the account operations the user handler depends on.
type UserServicer interface {
	Register(ctx context.Context, email, password, name string) (domain.User, error)
	IssueToken(ctx context.Context, email, password string) (domain.AccessToken, error)
	Me(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds every dependency the handlers need.
// Wire it in main.go and mount Server.Routes().
type Server struct {
	users    UserServicer
	tags     AttributeServicer
	items    AttributeServicer
	coffees  CoffeeServicer
	verifier auth.Verifier
	store    Pinger
	v        *validation.Validator
}

// NewServer constructs the Server with all its dependencies. store may be nil,
// in which case /healthz reports ok without probing anything.
func NewServer(users UserServicer, tags, items AttributeServicer, coffees CoffeeServicer, verifier auth.Verifier, store Pinger) *Server {
	return &Server{
		users:    users,
		tags:     tags,
		items:    items,
		coffees:  coffees,
		verifier: verifier,
		store:    store,
		v:        validation.New(),
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler(store Pinger) *Server {
	return NewServer(nil, nil, nil, nil, nil, store)
}
