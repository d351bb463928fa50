package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/coffee-api/internal/domain"
)

// AttributeRepo defines the persistence operations shared by Tags and Items.
// One implementation serves both; the AttributeKind decides the table.
type AttributeRepo interface {
	// Kind reports which attribute collection this repo reads and writes.
	Kind() domain.AttributeKind

	// Create inserts a new attribute owned by a.UserID and returns the
	// persisted record (with DB-generated id and created_at).
	Create(ctx context.Context, a domain.Attribute) (domain.Attribute, error)

	// ListByOwner returns every attribute owned by userID, ordered by name
	// descending, newest first among equal names.
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error)

	// GetByIDs returns the attributes whose id is in ids, regardless of owner.
	// Unknown ids are silently skipped; the caller compares lengths.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Attribute, error)
}

// pgAttributeRepo is the Postgres implementation of AttributeRepo.
type pgAttributeRepo struct {
	db   db
	kind domain.AttributeKind
}

// NewAttributeRepo constructs an AttributeRepo for kind backed by db.
// kind must be domain.TagKind or domain.ItemKind; its table name is
// interpolated into the SQL.
func NewAttributeRepo(db db, kind domain.AttributeKind) AttributeRepo {
	return &pgAttributeRepo{db: db, kind: kind}
}

// NewTagRepo is shorthand for NewAttributeRepo(db, domain.TagKind).
func NewTagRepo(db db) AttributeRepo {
	return NewAttributeRepo(db, domain.TagKind)
}

// NewItemRepo is shorthand for NewAttributeRepo(db, domain.ItemKind).
func NewItemRepo(db db) AttributeRepo {
	return NewAttributeRepo(db, domain.ItemKind)
}

func (r *pgAttributeRepo) Kind() domain.AttributeKind {
	return r.kind
}

func (r *pgAttributeRepo) Create(ctx context.Context, a domain.Attribute) (domain.Attribute, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES (@user_id, @name)
		RETURNING id, user_id, name, created_at`, r.kind.Table)

	result, err := scanAttribute(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id": a.UserID,
		"name":    a.Name,
	}))
	if err != nil {
		return domain.Attribute{}, fmt.Errorf("repo.AttributeRepo.Create(%s): %w", r.kind.Name, err)
	}
	return result, nil
}

func (r *pgAttributeRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Attribute, error) {
	q := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE user_id = @user_id
		ORDER BY name DESC, created_at DESC`, r.kind.Table)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.AttributeRepo.ListByOwner(%s): %w", r.kind.Name, err)
	}
	attrs, err := collectAttributes(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.AttributeRepo.ListByOwner(%s): %w", r.kind.Name, err)
	}
	return attrs, nil
}

func (r *pgAttributeRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Attribute, error) {
	if len(ids) == 0 {
		return []domain.Attribute{}, nil
	}

	q := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE id = ANY(@ids)`, r.kind.Table)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": toPgUUIDs(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.AttributeRepo.GetByIDs(%s): %w", r.kind.Name, err)
	}
	attrs, err := collectAttributes(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.AttributeRepo.GetByIDs(%s): %w", r.kind.Name, err)
	}
	return attrs, nil
}

// collectAttributes drains rows into a non-nil slice and closes them.
func collectAttributes(rows pgx.Rows) ([]domain.Attribute, error) {
	defer rows.Close()

	attrs := []domain.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return attrs, nil
}

// scanAttribute maps a single database row into a domain.Attribute.
func scanAttribute(s scanner) (domain.Attribute, error) {
	var (
		a      domain.Attribute
		id     pgtype.UUID
		userID pgtype.UUID
	)
	err := s.Scan(&id, &userID, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Attribute{}, domain.ErrNotFound
		}
		return domain.Attribute{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	a.UserID = uuid.UUID(userID.Bytes)
	return a, nil
}
