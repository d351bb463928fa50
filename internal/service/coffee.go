package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/repo"
	"github.com/pkordes/coffee-api/internal/validation"
)

// coffeeInput holds the field rules of a coffee, checked after trimming.
// time_minutes is bounded by the INTEGER column.
type coffeeInput struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Link        string       `json:"link" validate:"omitempty,max=255,url"`
	TimeMinutes int          `json:"time_minutes" validate:"gte=0,lte=2147483647"`
	Price       domain.Price `json:"price" validate:"gte=0,maxprice"`
}

// CoffeeService implements business logic for Coffee operations.
// Every read and write is scoped to the requesting user; another user's
// coffee is reported as domain.ErrNotFound.
type CoffeeService struct {
	coffees repo.CoffeeRepo
	tags    repo.AttributeRepo
	items   repo.AttributeRepo
	v       *validation.Validator

	// strictOwnership makes tags and items owned by someone else count as
	// nonexistent when attached.
	strictOwnership bool
}

// CoffeeOption configures a CoffeeService.
type CoffeeOption func(*CoffeeService)

// WithStrictAttributeOwnership rejects attaching tags or items the
// requesting user does not own.
func WithStrictAttributeOwnership(strict bool) CoffeeOption {
	return func(s *CoffeeService) {
		s.strictOwnership = strict
	}
}

// NewCoffeeService constructs a CoffeeService. tags and items resolve the ids
// a coffee references.
func NewCoffeeService(coffees repo.CoffeeRepo, tags, items repo.AttributeRepo, opts ...CoffeeOption) *CoffeeService {
	s := &CoffeeService{
		coffees: coffees,
		tags:    tags,
		items:   items,
		v:       validation.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns userID's coffees, newest first, with tag and item ids only.
// The result is never nil.
func (s *CoffeeService) List(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
	coffees, err := s.coffees.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.CoffeeService.List: %w", err)
	}
	if coffees == nil {
		coffees = []domain.Coffee{}
	}
	return coffees, nil
}

// Get returns one of userID's coffees with tags and items expanded.
func (s *CoffeeService) Get(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	c, err := s.coffees.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Get: %w", err)
	}
	return c, nil
}

// Create validates c and stores it as a new coffee owned by userID.
func (s *CoffeeService) Create(ctx context.Context, userID uuid.UUID, c domain.Coffee) (domain.Coffee, error) {
	c.ID = uuid.Nil
	c.UserID = userID

	c, err := s.prepare(ctx, c)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Create: %w", err)
	}

	created, err := s.coffees.Create(ctx, c)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Create: %w", err)
	}
	return created, nil
}

// Replace overwrites every field of coffee id with c. Tags and items absent
// from c are detached.
func (s *CoffeeService) Replace(ctx context.Context, userID, id uuid.UUID, c domain.Coffee) (domain.Coffee, error) {
	if _, err := s.coffees.GetByID(ctx, userID, id); err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Replace: %w", err)
	}
	c.ID = id
	c.UserID = userID

	updated, err := s.update(ctx, c)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Replace: %w", err)
	}
	return updated, nil
}

// Patch changes only the fields set in p. A set TagIDs or ItemIDs replaces
// that association wholesale.
func (s *CoffeeService) Patch(ctx context.Context, userID, id uuid.UUID, p domain.CoffeePatch) (domain.Coffee, error) {
	current, err := s.coffees.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Patch: %w", err)
	}

	updated, err := s.update(ctx, p.Apply(current))
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("service.CoffeeService.Patch: %w", err)
	}
	return updated, nil
}

// Delete removes one of userID's coffees.
func (s *CoffeeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.coffees.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.CoffeeService.Delete: %w", err)
	}
	return nil
}

func (s *CoffeeService) update(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	c, err := s.prepare(ctx, c)
	if err != nil {
		return domain.Coffee{}, err
	}
	return s.coffees.Update(ctx, c)
}

// prepare normalizes c and checks every business rule, collecting all
// failures into a single *domain.ValidationError.
func (s *CoffeeService) prepare(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Link = strings.TrimSpace(c.Link)

	fields := map[string]string{}
	err := collectFields(fields, s.v.Validate(coffeeInput{
		Title:       c.Title,
		Link:        c.Link,
		TimeMinutes: c.TimeMinutes,
		Price:       c.Price,
	}))
	if err != nil {
		return domain.Coffee{}, err
	}

	c.TagIDs = dedupeIDs(c.TagIDs)
	c.ItemIDs = dedupeIDs(c.ItemIDs)

	for _, ref := range []struct {
		repo repo.AttributeRepo
		ids  []uuid.UUID
	}{
		{s.tags, c.TagIDs},
		{s.items, c.ItemIDs},
	} {
		problem, err := s.checkAttributes(ctx, c.UserID, ref.repo, ref.ids)
		if err != nil {
			return domain.Coffee{}, err
		}
		if problem != "" {
			fields[ref.repo.Kind().Plural] = problem
		}
	}

	if len(fields) > 0 {
		return domain.Coffee{}, &domain.ValidationError{Fields: fields}
	}
	return c, nil
}

// checkAttributes describes the first of ids that r cannot resolve, or
// returns "" when all resolve. In strict mode an id owned by another user
// does not resolve.
func (s *CoffeeService) checkAttributes(ctx context.Context, userID uuid.UUID, r repo.AttributeRepo, ids []uuid.UUID) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	kind := r.Kind()

	found, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", kind.Plural, err)
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, a := range found {
		if s.strictOwnership && a.UserID != userID {
			continue
		}
		known[a.ID] = struct{}{}
	}

	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Sprintf("invalid %s %q: object does not exist", kind.Name, id), nil
		}
	}
	return "", nil
}
