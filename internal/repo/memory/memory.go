// Package memory provides an in-process implementation of the repo interfaces.
// It is selected when no DATABASE_URL is configured and backs the end-to-end
// HTTP tests. Each collection keeps a secondary index from owner to ids so
// owner-scoped reads never scan other users' records.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/repo"
)

// Store holds every collection behind one lock, which makes each repo call
// atomic in the same way a single Postgres transaction would.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users        map[uuid.UUID]domain.User
	usersByEmail map[string]uuid.UUID

	// attrs and attrsByOwner are keyed by AttributeKind.Table.
	attrs        map[string]map[uuid.UUID]domain.Attribute
	attrsByOwner map[string]map[uuid.UUID][]uuid.UUID

	coffees        map[uuid.UUID]domain.Coffee
	coffeesByOwner map[uuid.UUID][]uuid.UUID
}

// New returns an empty Store.
func New() *Store {
	s := &Store{
		now:            func() time.Time { return time.Now().UTC() },
		users:          map[uuid.UUID]domain.User{},
		usersByEmail:   map[string]uuid.UUID{},
		attrs:          map[string]map[uuid.UUID]domain.Attribute{},
		attrsByOwner:   map[string]map[uuid.UUID][]uuid.UUID{},
		coffees:        map[uuid.UUID]domain.Coffee{},
		coffeesByOwner: map[uuid.UUID][]uuid.UUID{},
	}
	for _, kind := range []domain.AttributeKind{domain.TagKind, domain.ItemKind} {
		s.attrs[kind.Table] = map[uuid.UUID]domain.Attribute{}
		s.attrsByOwner[kind.Table] = map[uuid.UUID][]uuid.UUID{}
	}
	return s
}

// Ping always succeeds; it lets the health check treat both stores alike.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Users returns the user repository view of the store.
func (s *Store) Users() repo.UserRepo { return userRepo{s} }

// Tags returns the tag repository view of the store.
func (s *Store) Tags() repo.AttributeRepo { return attributeRepo{s, domain.TagKind} }

// Items returns the item repository view of the store.
func (s *Store) Items() repo.AttributeRepo { return attributeRepo{s, domain.ItemKind} }

// Coffees returns the coffee repository view of the store.
func (s *Store) Coffees() repo.CoffeeRepo { return coffeeRepo{s} }

// ---- users -----------------------------------------------------------------

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.s.usersByEmail[key]; taken {
		return domain.User{}, fmt.Errorf("memory.UserRepo.Create: %w: email already registered", domain.ErrConflict)
	}
	user.ID = uuid.New()
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = user
	r.s.usersByEmail[key] = user.ID
	return user, nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("memory.UserRepo.GetByID: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, fmt.Errorf("memory.UserRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	return r.s.users[id], nil
}

// ---- tags & items ----------------------------------------------------------

type attributeRepo struct {
	s    *Store
	kind domain.AttributeKind
}

func (r attributeRepo) Kind() domain.AttributeKind { return r.kind }

func (r attributeRepo) Create(_ context.Context, a domain.Attribute) (domain.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a.ID = uuid.New()
	a.CreatedAt = r.s.now()
	r.s.attrs[r.kind.Table][a.ID] = a
	byOwner := r.s.attrsByOwner[r.kind.Table]
	byOwner[a.UserID] = append(byOwner[a.UserID], a.ID)
	return a, nil
}

func (r attributeRepo) ListByOwner(_ context.Context, userID uuid.UUID) ([]domain.Attribute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.attrsByOwner[r.kind.Table][userID]
	out := make([]domain.Attribute, 0, len(ids))
	// Walk newest first so the stable sort keeps newest first among equal names.
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, r.s.attrs[r.kind.Table][ids[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (r attributeRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Attribute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.lookupAttrs(r.kind, ids), nil
}

// lookupAttrs returns the attributes of kind for ids, skipping unknown ids.
// Callers must hold s.mu.
func (s *Store) lookupAttrs(kind domain.AttributeKind, ids []uuid.UUID) []domain.Attribute {
	out := make([]domain.Attribute, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.attrs[kind.Table][id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ---- coffees ---------------------------------------------------------------

type coffeeRepo struct{ s *Store }

func (r coffeeRepo) Create(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkLinks(c); err != nil {
		return domain.Coffee{}, fmt.Errorf("memory.CoffeeRepo.Create: %w", err)
	}
	c.ID = uuid.New()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	c = summary(c)
	r.s.coffees[c.ID] = c
	r.s.coffeesByOwner[c.UserID] = append(r.s.coffeesByOwner[c.UserID], c.ID)
	return summary(c), nil
}

func (r coffeeRepo) GetByID(_ context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.coffees[id]
	if !ok || c.UserID != userID {
		return domain.Coffee{}, fmt.Errorf("memory.CoffeeRepo.GetByID: %w", domain.ErrNotFound)
	}
	c = summary(c)
	c.Tags = r.s.lookupAttrs(domain.TagKind, c.TagIDs)
	c.Items = r.s.lookupAttrs(domain.ItemKind, c.ItemIDs)
	return c, nil
}

func (r coffeeRepo) ListByOwner(_ context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.coffeesByOwner[userID]
	out := make([]domain.Coffee, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, summary(r.s.coffees[ids[i]]))
	}
	return out, nil
}

func (r coffeeRepo) Update(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.coffees[c.ID]
	if !ok || existing.UserID != c.UserID {
		return domain.Coffee{}, fmt.Errorf("memory.CoffeeRepo.Update: %w", domain.ErrNotFound)
	}
	if err := r.s.checkLinks(c); err != nil {
		return domain.Coffee{}, fmt.Errorf("memory.CoffeeRepo.Update: %w", err)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.s.now()
	c = summary(c)
	r.s.coffees[c.ID] = c
	return summary(c), nil
}

func (r coffeeRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.coffees[id]
	if !ok || c.UserID != userID {
		return fmt.Errorf("memory.CoffeeRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.s.coffees, id)
	owned := r.s.coffeesByOwner[userID]
	if i := slices.Index(owned, id); i >= 0 {
		r.s.coffeesByOwner[userID] = slices.Delete(owned, i, i+1)
	}
	return nil
}

// checkLinks mirrors the join-table foreign keys: every linked id must exist.
// Callers must hold s.mu.
func (s *Store) checkLinks(c domain.Coffee) error {
	for _, link := range []struct {
		kind domain.AttributeKind
		ids  []uuid.UUID
	}{
		{domain.TagKind, c.TagIDs},
		{domain.ItemKind, c.ItemIDs},
	} {
		for _, id := range link.ids {
			if _, ok := s.attrs[link.kind.Table][id]; !ok {
				return fmt.Errorf("%w: %s %s does not exist", domain.ErrValidation, link.kind.Name, id)
			}
		}
	}
	return nil
}

// summary returns c without expanded attributes and with private copies of
// the id slices, so callers never share backing arrays with the store.
func summary(c domain.Coffee) domain.Coffee {
	c.Tags = nil
	c.Items = nil
	c.TagIDs = append([]uuid.UUID{}, c.TagIDs...)
	c.ItemIDs = append([]uuid.UUID{}, c.ItemIDs...)
	return c
}
