package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coffee is a user-owned recipe-like record.
// TagIDs and ItemIDs are always populated, in attach order.
// Tags and Items are only populated by detail reads (see CoffeeRepo.GetByID).
type Coffee struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	TimeMinutes int
	Price       Price
	Link        string
	TagIDs      []uuid.UUID
	ItemIDs     []uuid.UUID
	Tags        []Attribute
	Items       []Attribute
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoffeePatch carries a partial update. Nil fields are left unchanged; a
// non-nil TagIDs or ItemIDs replaces the whole association, so an empty
// slice detaches everything.
type CoffeePatch struct {
	Title       *string
	TimeMinutes *int
	Price       *Price
	Link        *string
	TagIDs      *[]uuid.UUID
	ItemIDs     *[]uuid.UUID
}

// Apply returns a copy of c with every non-nil field of p written over it.
func (p CoffeePatch) Apply(c Coffee) Coffee {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.TimeMinutes != nil {
		c.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Link != nil {
		c.Link = *p.Link
	}
	if p.TagIDs != nil {
		c.TagIDs = *p.TagIDs
	}
	if p.ItemIDs != nil {
		c.ItemIDs = *p.ItemIDs
	}
	return c
}
