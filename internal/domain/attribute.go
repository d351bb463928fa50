package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttributeKind describes one of the simple named resources a user can attach
// to a coffee. Tags and items behave identically apart from where they live,
// so a single service and handler serve both, parameterized by a kind.
type AttributeKind struct {
	// Name is the singular noun used in messages, e.g. "tag".
	Name string
	// Plural is used for route paths and request fields, e.g. "tags".
	Plural string
	// Table is the SQL table holding the rows.
	Table string
	// JoinTable links coffees to this kind.
	JoinTable string
	// JoinColumn is the foreign key column in JoinTable.
	JoinColumn string
}

var (
	// TagKind describes user-defined labels such as "Espresso".
	TagKind = AttributeKind{
		Name:       "tag",
		Plural:     "tags",
		Table:      "tags",
		JoinTable:  "coffee_tags",
		JoinColumn: "tag_id",
	}

	// ItemKind describes the ingredients a coffee is made of, such as "Arábica".
	ItemKind = AttributeKind{
		Name:       "item",
		Plural:     "items",
		Table:      "items",
		JoinTable:  "coffee_items",
		JoinColumn: "item_id",
	}
)

// Attribute is a single Tag or Item. UserID is stamped at creation and never
// changes afterwards.
type Attribute struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	CreatedAt time.Time
}
