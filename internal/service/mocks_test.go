package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/repo"
	"github.com/pkordes/coffee-api/internal/service"
)

// ---- mock AttributeRepo ----------------------------------------------------

type mockAttributeRepo struct {
	kind        domain.AttributeKind
	create      func(ctx context.Context, a domain.Attribute) (domain.Attribute, error)
	listByOwner func(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error)
	getByIDs    func(ctx context.Context, ids []uuid.UUID) ([]domain.Attribute, error)
}

func (m *mockAttributeRepo) Kind() domain.AttributeKind { return m.kind }
func (m *mockAttributeRepo) Create(ctx context.Context, a domain.Attribute) (domain.Attribute, error) {
	return m.create(ctx, a)
}
func (m *mockAttributeRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error) {
	return m.listByOwner(ctx, userID)
}
func (m *mockAttributeRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Attribute, error) {
	return m.getByIDs(ctx, ids)
}

// ---- mock CoffeeRepo -------------------------------------------------------

type mockCoffeeRepo struct {
	create      func(ctx context.Context, c domain.Coffee) (domain.Coffee, error)
	getByID     func(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error)
	listByOwner func(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error)
	update      func(ctx context.Context, c domain.Coffee) (domain.Coffee, error)
	delete      func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockCoffeeRepo) Create(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	return m.create(ctx, c)
}
func (m *mockCoffeeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	return m.getByID(ctx, userID, id)
}
func (m *mockCoffeeRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
	return m.listByOwner(ctx, userID)
}
func (m *mockCoffeeRepo) Update(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	return m.update(ctx, c)
}
func (m *mockCoffeeRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

// ---- mock UserRepo ---------------------------------------------------------

type mockUserRepo struct {
	create     func(ctx context.Context, u domain.User) (domain.User, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByEmail func(ctx context.Context, email string) (domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}

// ---- mock TokenIssuer ------------------------------------------------------

type mockTokenIssuer struct {
	issue func(userID uuid.UUID) (string, time.Time, error)
}

func (m *mockTokenIssuer) Issue(userID uuid.UUID) (string, time.Time, error) {
	return m.issue(userID)
}

// compile-time checks
var (
	_ repo.AttributeRepo  = (*mockAttributeRepo)(nil)
	_ repo.CoffeeRepo     = (*mockCoffeeRepo)(nil)
	_ repo.UserRepo       = (*mockUserRepo)(nil)
	_ service.TokenIssuer = (*mockTokenIssuer)(nil)
)

// attrsByID returns a getByIDs func that resolves ids against known.
func attrsByID(known ...domain.Attribute) func(context.Context, []uuid.UUID) ([]domain.Attribute, error) {
	return func(_ context.Context, ids []uuid.UUID) ([]domain.Attribute, error) {
		out := []domain.Attribute{}
		for _, id := range ids {
			for _, a := range known {
				if a.ID == id {
					out = append(out, a)
				}
			}
		}
		return out, nil
	}
}
