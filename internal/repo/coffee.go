package repo

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/pkordes/coffee-api/internal/domain"
)

// CoffeeRepo defines the persistence operations for Coffees.
// Every read and write is scoped by the owning user's ID; a coffee owned by
// somebody else is reported as domain.ErrNotFound.
type CoffeeRepo interface {
	// Create inserts the coffee and its tag/item links in one transaction and
	// returns the persisted record. Links keep the order of c.TagIDs/c.ItemIDs.
	// Returns domain.ErrValidation if a linked id does not exist.
	Create(ctx context.Context, c domain.Coffee) (domain.Coffee, error)

	// GetByID returns the coffee with Tags and Items expanded.
	GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error)

	// ListByOwner returns the owner's coffees, newest first. Only TagIDs and
	// ItemIDs are populated, not the expanded Tags/Items.
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error)

	// Update overwrites the mutable fields of c (scoped by c.UserID) and
	// replaces both link sets wholesale.
	Update(ctx context.Context, c domain.Coffee) (domain.Coffee, error)

	// Delete removes a coffee and, by cascade, its links.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// pgCoffeeRepo is the Postgres implementation of CoffeeRepo.
type pgCoffeeRepo struct {
	db db
}

// NewCoffeeRepo constructs a CoffeeRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCoffeeRepo(db db) CoffeeRepo {
	return &pgCoffeeRepo{db: db}
}

// coffeeColumns is shared by every SELECT/RETURNING so scanCoffee stays in sync.
// price travels as pgtype.Numeric so no float rounding happens on either side.
const coffeeColumns = `
	c.id, c.user_id, c.title, c.time_minutes, c.price, c.link, c.created_at, c.updated_at,
	ARRAY(SELECT ct.tag_id FROM coffee_tags ct WHERE ct.coffee_id = c.id ORDER BY ct.position),
	ARRAY(SELECT ci.item_id FROM coffee_items ci WHERE ci.coffee_id = c.id ORDER BY ci.position)`

func (r *pgCoffeeRepo) Create(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	const q = `
		INSERT INTO coffees (user_id, title, time_minutes, price, link)
		VALUES (@user_id, @title, @time_minutes, @price::numeric, @link)
		RETURNING id`

	var id pgtype.UUID
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, q, coffeeArgs(c)).Scan(&id); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, uuid.UUID(id.Bytes), c.TagIDs, c.ItemIDs)
	})
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.Create: %w", translateWriteErr(err))
	}

	result, err := r.getSummary(ctx, c.UserID, uuid.UUID(id.Bytes))
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgCoffeeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	c, err := r.getSummary(ctx, userID, id)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.GetByID: %w", err)
	}

	c.Tags, err = r.listLinked(ctx, domain.TagKind, id)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.GetByID: tags: %w", err)
	}
	c.Items, err = r.listLinked(ctx, domain.ItemKind, id)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.GetByID: items: %w", err)
	}
	return c, nil
}

func (r *pgCoffeeRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
	q := `
		SELECT ` + coffeeColumns + `
		FROM coffees c
		WHERE c.user_id = @user_id
		ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.CoffeeRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	coffees := []domain.Coffee{}
	for rows.Next() {
		c, err := scanCoffee(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CoffeeRepo.ListByOwner: scan: %w", err)
		}
		coffees = append(coffees, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CoffeeRepo.ListByOwner: rows: %w", err)
	}
	return coffees, nil
}

func (r *pgCoffeeRepo) Update(ctx context.Context, c domain.Coffee) (domain.Coffee, error) {
	const q = `
		UPDATE coffees
		SET title        = @title,
		    time_minutes = @time_minutes,
		    price        = @price::numeric,
		    link         = @link,
		    updated_at   = now()
		WHERE id = @id AND user_id = @user_id`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		args := coffeeArgs(c)
		args["id"] = c.ID
		tag, err := tx.Exec(ctx, q, args)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return replaceLinks(ctx, tx, c.ID, c.TagIDs, c.ItemIDs)
	})
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.Update: %w", translateWriteErr(err))
	}

	result, err := r.getSummary(ctx, c.UserID, c.ID)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("repo.CoffeeRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgCoffeeRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM coffees WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.CoffeeRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CoffeeRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// getSummary reads one owned coffee with its link ids but without expansion.
func (r *pgCoffeeRepo) getSummary(ctx context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
	q := `
		SELECT ` + coffeeColumns + `
		FROM coffees c
		WHERE c.id = @id AND c.user_id = @user_id`

	return scanCoffee(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
}

// listLinked returns the attributes of kind linked to coffeeID in attach order.
func (r *pgCoffeeRepo) listLinked(ctx context.Context, kind domain.AttributeKind, coffeeID uuid.UUID) ([]domain.Attribute, error) {
	q := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.name, a.created_at
		FROM %s a
		JOIN %s l ON l.%s = a.id
		WHERE l.coffee_id = @coffee_id
		ORDER BY l.position`, kind.Table, kind.JoinTable, kind.JoinColumn)

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"coffee_id": coffeeID})
	if err != nil {
		return nil, err
	}
	return collectAttributes(rows)
}

// replaceLinks swaps both association sets of a coffee for the given ids.
// Position follows slice order so reads return links in attach order.
func replaceLinks(ctx context.Context, tx pgx.Tx, coffeeID uuid.UUID, tagIDs, itemIDs []uuid.UUID) error {
	for _, link := range []struct {
		kind domain.AttributeKind
		ids  []uuid.UUID
	}{
		{domain.TagKind, tagIDs},
		{domain.ItemKind, itemIDs},
	} {
		del := fmt.Sprintf(`DELETE FROM %s WHERE coffee_id = @coffee_id`, link.kind.JoinTable)
		if _, err := tx.Exec(ctx, del, pgx.NamedArgs{"coffee_id": coffeeID}); err != nil {
			return err
		}
		if len(link.ids) == 0 {
			continue
		}

		ins := fmt.Sprintf(`
			INSERT INTO %s (coffee_id, %s, position)
			SELECT @coffee_id, l.id, l.ord
			FROM unnest(@ids::uuid[]) WITH ORDINALITY AS l(id, ord)`,
			link.kind.JoinTable, link.kind.JoinColumn)
		args := pgx.NamedArgs{"coffee_id": coffeeID, "ids": toPgUUIDs(link.ids)}
		if _, err := tx.Exec(ctx, ins, args); err != nil {
			return err
		}
	}
	return nil
}

func coffeeArgs(c domain.Coffee) pgx.NamedArgs {
	return pgx.NamedArgs{
		"user_id":      c.UserID,
		"title":        c.Title,
		"time_minutes": c.TimeMinutes,
		"price":        priceToNumeric(c.Price),
		"link":         c.Link,
	}
}

// translateWriteErr turns a dangling tag/item reference into a validation error.
func translateWriteErr(err error) error {
	if pgErrCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return err
}

// scanCoffee maps a single row selected with coffeeColumns into a domain.Coffee.
func scanCoffee(s scanner) (domain.Coffee, error) {
	var (
		c       domain.Coffee
		id      pgtype.UUID
		userID  pgtype.UUID
		price   pgtype.Numeric
		tagIDs  []pgtype.UUID
		itemIDs []pgtype.UUID
	)
	err := s.Scan(&id, &userID, &c.Title, &c.TimeMinutes, &price, &c.Link,
		&c.CreatedAt, &c.UpdatedAt, &tagIDs, &itemIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Coffee{}, domain.ErrNotFound
		}
		return domain.Coffee{}, err
	}

	c.Price, err = numericToPrice(price)
	if err != nil {
		return domain.Coffee{}, fmt.Errorf("price: %w", err)
	}
	c.ID = uuid.UUID(id.Bytes)
	c.UserID = uuid.UUID(userID.Bytes)
	c.TagIDs = fromPgUUIDs(tagIDs)
	c.ItemIDs = fromPgUUIDs(itemIDs)
	return c, nil
}

func priceToNumeric(p domain.Price) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(int64(p)), Exp: -2, Valid: true}
}

func numericToPrice(n pgtype.Numeric) (domain.Price, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return 0, errors.New("not a finite number")
	}
	return domain.PriceFromDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}
