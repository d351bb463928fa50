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

// attributeInput holds the rules a tag or item name must meet once trimmed.
type attributeInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// AttributeService implements the business logic shared by Tags and Items.
// One instance serves one AttributeKind.
type AttributeService struct {
	repo repo.AttributeRepo
	v    *validation.Validator
}

// NewAttributeService constructs an AttributeService over r. The kind served
// is whatever r.Kind() reports.
func NewAttributeService(r repo.AttributeRepo) *AttributeService {
	return &AttributeService{repo: r, v: validation.New()}
}

// Kind reports which attribute collection this service manages.
func (s *AttributeService) Kind() domain.AttributeKind {
	return s.repo.Kind()
}

// List returns the attributes owned by userID, ordered by name descending.
// The result is never nil.
func (s *AttributeService) List(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error) {
	attrs, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.AttributeService.List(%s): %w", s.Kind().Name, err)
	}
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	return attrs, nil
}

// Create stores a new attribute owned by userID. The name is trimmed and must
// not be blank. Duplicate names are allowed.
func (s *AttributeService) Create(ctx context.Context, userID uuid.UUID, name string) (domain.Attribute, error) {
	in := attributeInput{Name: strings.TrimSpace(name)}
	if err := s.v.Validate(in); err != nil {
		return domain.Attribute{}, err
	}
	name = in.Name

	a, err := s.repo.Create(ctx, domain.Attribute{UserID: userID, Name: name})
	if err != nil {
		return domain.Attribute{}, fmt.Errorf("service.AttributeService.Create(%s): %w", s.Kind().Name, err)
	}
	return a, nil
}
