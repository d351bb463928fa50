package service_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/coffee-api/internal/domain"
	"github.com/pkordes/coffee-api/internal/service"
)

type coffeeFixture struct {
	userID  uuid.UUID
	other   uuid.UUID
	tagA    domain.Attribute
	tagB    domain.Attribute
	tagC    domain.Attribute
	foreign domain.Attribute
	item    domain.Attribute
	coffees *mockCoffeeRepo
	tags    *mockAttributeRepo
	items   *mockAttributeRepo
}

func newCoffeeFixture() *coffeeFixture {
	userID, other := uuid.New(), uuid.New()
	f := &coffeeFixture{
		userID:  userID,
		other:   other,
		tagA:    domain.Attribute{ID: uuid.New(), UserID: userID, Name: "A"},
		tagB:    domain.Attribute{ID: uuid.New(), UserID: userID, Name: "B"},
		tagC:    domain.Attribute{ID: uuid.New(), UserID: userID, Name: "C"},
		foreign: domain.Attribute{ID: uuid.New(), UserID: other, Name: "Theirs"},
		item:    domain.Attribute{ID: uuid.New(), UserID: userID, Name: "Arábica"},
		coffees: &mockCoffeeRepo{},
	}
	f.tags = &mockAttributeRepo{kind: domain.TagKind, getByIDs: attrsByID(f.tagA, f.tagB, f.tagC, f.foreign)}
	f.items = &mockAttributeRepo{kind: domain.ItemKind, getByIDs: attrsByID(f.item)}
	return f
}

func (f *coffeeFixture) service(opts ...service.CoffeeOption) *service.CoffeeService {
	return service.NewCoffeeService(f.coffees, f.tags, f.items, opts...)
}

func validCoffee() domain.Coffee {
	return domain.Coffee{Title: "Flat White", TimeMinutes: 5, Price: 450}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

// ---- Create ----------------------------------------------------------------

func TestCoffeeService_Create_OK(t *testing.T) {
	f := newCoffeeFixture()
	var captured domain.Coffee
	f.coffees.create = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
		captured = c
		c.ID = uuid.New()
		return c, nil
	}

	in := validCoffee()
	in.Title = "  Flat White "
	in.UserID = f.other // must be overwritten
	in.TagIDs = []uuid.UUID{f.tagB.ID, f.tagA.ID, f.tagB.ID}
	in.ItemIDs = []uuid.UUID{f.item.ID}

	got, err := f.service().Create(context.Background(), f.userID, in)

	require.NoError(t, err)
	assert.Equal(t, f.userID, captured.UserID)
	assert.Equal(t, "Flat White", captured.Title)
	assert.Equal(t, []uuid.UUID{f.tagB.ID, f.tagA.ID}, captured.TagIDs)
	assert.Equal(t, []uuid.UUID{f.item.ID}, captured.ItemIDs)
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestCoffeeService_Create_NoLinksGivesEmptySlices(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.create = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
		assert.NotNil(t, c.TagIDs)
		assert.NotNil(t, c.ItemIDs)
		return c, nil
	}

	_, err := f.service().Create(context.Background(), f.userID, validCoffee())
	require.NoError(t, err)
}

func TestCoffeeService_Create_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *domain.Coffee)
		wantField string
	}{
		{"blank title", func(c *domain.Coffee) { c.Title = "  " }, "title"},
		{"negative minutes", func(c *domain.Coffee) { c.TimeMinutes = -1 }, "time_minutes"},
		{"minutes beyond int4", func(c *domain.Coffee) { c.TimeMinutes = math.MaxInt32 + 1 }, "time_minutes"},
		{"long title", func(c *domain.Coffee) { c.Title = strings.Repeat("a", 256) }, "title"},
		{"negative price", func(c *domain.Coffee) { c.Price = -1 }, "price"},
		{"price too large", func(c *domain.Coffee) { c.Price = domain.MaxPrice + 1 }, "price"},
		{"bad link", func(c *domain.Coffee) { c.Link = "not a link" }, "link"},
		{"unknown tag", func(c *domain.Coffee) { c.TagIDs = []uuid.UUID{uuid.New()} }, "tags"},
		{"unknown item", func(c *domain.Coffee) { c.ItemIDs = []uuid.UUID{uuid.New()} }, "items"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCoffeeFixture() // create is nil: reaching the repo would panic
			in := validCoffee()
			tc.mutate(&in)

			_, err := f.service().Create(context.Background(), f.userID, in)

			require.ErrorIs(t, err, domain.ErrValidation)
			fields := fieldsOf(t, err)
			assert.Contains(t, fields, tc.wantField)
			assert.Len(t, fields, 1)
		})
	}
}

func TestCoffeeService_Create_FieldMessages(t *testing.T) {
	f := newCoffeeFixture()
	in := validCoffee()
	in.TimeMinutes = math.MaxInt32 + 1
	in.Price = domain.MaxPrice + 1

	_, err := f.service().Create(context.Background(), f.userID, in)

	fields := fieldsOf(t, err)
	assert.Equal(t, "ensure this value is less than or equal to 2147483647", fields["time_minutes"])
	assert.Equal(t, "ensure that there are no more than 7 digits in total", fields["price"])
}

func TestCoffeeService_Create_LargestValuesAccepted(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.create = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
		return c, nil
	}
	in := validCoffee()
	in.TimeMinutes = math.MaxInt32
	in.Price = domain.MaxPrice

	_, err := f.service().Create(context.Background(), f.userID, in)

	require.NoError(t, err)
}

func TestCoffeeService_Create_ReportsAllFields(t *testing.T) {
	f := newCoffeeFixture()

	_, err := f.service().Create(context.Background(), f.userID, domain.Coffee{
		TimeMinutes: -5,
		TagIDs:      []uuid.UUID{uuid.New()},
		ItemIDs:     []uuid.UUID{uuid.New()},
	})

	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "time_minutes")
	assert.Contains(t, fields, "tags")
	assert.Contains(t, fields, "items")
}

func TestCoffeeService_Create_ForeignTag_Permissive(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.create = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) { return c, nil }

	in := validCoffee()
	in.TagIDs = []uuid.UUID{f.foreign.ID}

	got, err := f.service().Create(context.Background(), f.userID, in)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.foreign.ID}, got.TagIDs)
}

func TestCoffeeService_Create_ForeignTag_Strict(t *testing.T) {
	f := newCoffeeFixture()

	in := validCoffee()
	in.TagIDs = []uuid.UUID{f.tagA.ID, f.foreign.ID}

	_, err := f.service(service.WithStrictAttributeOwnership(true)).Create(context.Background(), f.userID, in)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, fieldsOf(t, err)["tags"], f.foreign.ID.String())
}

// ---- List / Get ------------------------------------------------------------

func TestCoffeeService_List_ScopedAndNeverNil(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.listByOwner = func(_ context.Context, userID uuid.UUID) ([]domain.Coffee, error) {
		assert.Equal(t, f.userID, userID)
		return nil, nil
	}

	got, err := f.service().List(context.Background(), f.userID)

	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCoffeeService_Get_NotFound(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.getByID = func(context.Context, uuid.UUID, uuid.UUID) (domain.Coffee, error) {
		return domain.Coffee{}, domain.ErrNotFound
	}

	_, err := f.service().Get(context.Background(), f.userID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Replace ---------------------------------------------------------------

func TestCoffeeService_Replace_OmittedLinksDetach(t *testing.T) {
	f := newCoffeeFixture()
	id := uuid.New()
	f.coffees.getByID = func(_ context.Context, userID, got uuid.UUID) (domain.Coffee, error) {
		return domain.Coffee{ID: got, UserID: userID, Title: "Old", TagIDs: []uuid.UUID{f.tagA.ID}}, nil
	}
	var captured domain.Coffee
	f.coffees.update = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
		captured = c
		return c, nil
	}

	_, err := f.service().Replace(context.Background(), f.userID, id, validCoffee())

	require.NoError(t, err)
	assert.Equal(t, id, captured.ID)
	assert.Equal(t, f.userID, captured.UserID)
	assert.Equal(t, "Flat White", captured.Title)
	assert.Empty(t, captured.TagIDs)
}

func TestCoffeeService_Replace_OtherOwnersCoffee(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.getByID = func(context.Context, uuid.UUID, uuid.UUID) (domain.Coffee, error) {
		return domain.Coffee{}, domain.ErrNotFound
	}

	// Not found wins over the invalid body.
	_, err := f.service().Replace(context.Background(), f.userID, uuid.New(), domain.Coffee{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Patch -----------------------------------------------------------------

func TestCoffeeService_Patch_ReplacesTagSet(t *testing.T) {
	f := newCoffeeFixture()
	id := uuid.New()
	f.coffees.getByID = func(_ context.Context, userID, got uuid.UUID) (domain.Coffee, error) {
		return domain.Coffee{
			ID: got, UserID: userID, Title: "Cortado", TimeMinutes: 3, Price: 300,
			TagIDs:  []uuid.UUID{f.tagA.ID, f.tagB.ID},
			ItemIDs: []uuid.UUID{f.item.ID},
		}, nil
	}
	var captured domain.Coffee
	f.coffees.update = func(_ context.Context, c domain.Coffee) (domain.Coffee, error) {
		captured = c
		return c, nil
	}

	tags := []uuid.UUID{f.tagC.ID}
	_, err := f.service().Patch(context.Background(), f.userID, id, domain.CoffeePatch{TagIDs: &tags})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.tagC.ID}, captured.TagIDs)
	assert.Equal(t, []uuid.UUID{f.item.ID}, captured.ItemIDs)
	assert.Equal(t, "Cortado", captured.Title)
	assert.Equal(t, domain.Price(300), captured.Price)
}

func TestCoffeeService_Patch_InvalidField(t *testing.T) {
	f := newCoffeeFixture()
	f.coffees.getByID = func(_ context.Context, userID, id uuid.UUID) (domain.Coffee, error) {
		return domain.Coffee{ID: id, UserID: userID, Title: "Cortado"}, nil
	}

	blank := ""
	_, err := f.service().Patch(context.Background(), f.userID, uuid.New(), domain.CoffeePatch{Title: &blank})

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, fieldsOf(t, err), "title")
}

// ---- Delete ----------------------------------------------------------------

func TestCoffeeService_Delete_Scoped(t *testing.T) {
	f := newCoffeeFixture()
	id := uuid.New()
	f.coffees.delete = func(_ context.Context, userID, got uuid.UUID) error {
		if userID != f.userID || got != id {
			return domain.ErrNotFound
		}
		return nil
	}

	require.NoError(t, f.service().Delete(context.Background(), f.userID, id))
	assert.ErrorIs(t, f.service().Delete(context.Background(), f.other, id), domain.ErrNotFound)
}
