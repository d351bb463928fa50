package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
)

const coffeeNotFound = "coffee not found"

// coffeeRequest is the body of POST, PUT and PATCH /coffees. Pointers tell an
// omitted field apart from a zero value; only PATCH tolerates omissions.
type coffeeRequest struct {
	Title       *string       `json:"title" validate:"required"`
	TimeMinutes *int          `json:"time_minutes" validate:"required"`
	Price       *domain.Price `json:"price" validate:"required"`
	Link        *string       `json:"link"`
	Tags        *[]uuid.UUID  `json:"tags"`
	Items       *[]uuid.UUID  `json:"items"`
}

// UnmarshalJSON decodes price, tags and items on their own so a malformed
// value is reported against its field instead of failing the whole body.
func (req *coffeeRequest) UnmarshalJSON(b []byte) error {
	type plain coffeeRequest
	var body struct {
		plain
		Price json.RawMessage `json:"price"`
		Tags  json.RawMessage `json:"tags"`
		Items json.RawMessage `json:"items"`
	}

	fields := map[string]string{}
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(b, &body); err != nil {
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return err
		}
		fields[typeErr.Field] = "incorrect type, expected " + typeErr.Type.String()
	}
	*req = coffeeRequest(body.plain)

	if present(body.Price) {
		var p domain.Price
		if err := json.Unmarshal(body.Price, &p); err != nil {
			fields["price"] = "enter a decimal number with at most 2 decimal places"
		} else {
			req.Price = &p
		}
	}
	for key, link := range map[string]struct {
		raw json.RawMessage
		dst **[]uuid.UUID
	}{
		"tags":  {body.Tags, &req.Tags},
		"items": {body.Items, &req.Items},
	} {
		if !present(link.raw) {
			continue
		}
		var ids []uuid.UUID
		if err := json.Unmarshal(link.raw, &ids); err != nil {
			fields[key] = "must be a list of valid ids"
			continue
		}
		*link.dst = &ids
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// present reports whether raw carries a value other than null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// toCoffee builds a full coffee. Omitted tags and items become empty sets.
func (req coffeeRequest) toCoffee() domain.Coffee {
	c := domain.Coffee{
		Title:       deref(req.Title),
		TimeMinutes: deref(req.TimeMinutes),
		Price:       deref(req.Price),
		Link:        deref(req.Link),
		TagIDs:      []uuid.UUID{},
		ItemIDs:     []uuid.UUID{},
	}
	if req.Tags != nil {
		c.TagIDs = *req.Tags
	}
	if req.Items != nil {
		c.ItemIDs = *req.Items
	}
	return c
}

// toPatch keeps only the fields present in the body. An explicit
// "tags": null clears the set, the same as [].
func (req coffeeRequest) toPatch(raw map[string]any) domain.CoffeePatch {
	p := domain.CoffeePatch{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
		TagIDs:      req.Tags,
		ItemIDs:     req.Items,
	}
	for key, dst := range map[string]**[]uuid.UUID{"tags": &p.TagIDs, "items": &p.ItemIDs} {
		if _, present := raw[key]; present && *dst == nil {
			empty := []uuid.UUID{}
			*dst = &empty
		}
	}
	return p
}

// coffeeSummary is the list, create and update representation: tags and
// items are ids only.
type coffeeSummary struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       domain.Price `json:"price"`
	Link        string       `json:"link"`
	Tags        []uuid.UUID  `json:"tags"`
	Items       []uuid.UUID  `json:"items"`
}

// coffeeDetail is the retrieve representation with tags and items expanded.
type coffeeDetail struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       domain.Price        `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Items       []attributeResponse `json:"items"`
}

// ListCoffees handles GET /coffees.
func (s *Server) ListCoffees(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	coffees, err := s.coffees.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}

	resp := make([]coffeeSummary, len(coffees))
	for i, c := range coffees {
		resp[i] = coffeeToSummary(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCoffee handles POST /coffees.
func (s *Server) CreateCoffee(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req coffeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.Validate(req); err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}

	c, err := s.coffees.Create(r.Context(), userID, req.toCoffee())
	if err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, coffeeToSummary(c))
}

// GetCoffee handles GET /coffees/{id}.
func (s *Server) GetCoffee(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFoundBody(coffeeNotFound))
		return
	}

	c, err := s.coffees.Get(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, coffeeToDetail(c))
}

// ReplaceCoffee handles PUT /coffees/{id}. Every required field must be sent;
// tags and items left out are detached.
func (s *Server) ReplaceCoffee(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFoundBody(coffeeNotFound))
		return
	}

	var req coffeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.Validate(req); err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}

	c, err := s.coffees.Replace(r.Context(), userID, id, req.toCoffee())
	if err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, coffeeToSummary(c))
}

// PatchCoffee handles PATCH /coffees/{id}. Only the fields present in the
// body change; tags or items, when present, replace the whole set.
func (s *Server) PatchCoffee(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFoundBody(coffeeNotFound))
		return
	}

	var raw map[string]any
	var req coffeeRequest
	if !decodeJSON(w, r, &rawAndTyped{raw: &raw, typed: &req}) {
		return
	}

	c, err := s.coffees.Patch(r.Context(), userID, id, req.toPatch(raw))
	if err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, coffeeToSummary(c))
}

// DeleteCoffee handles DELETE /coffees/{id}.
func (s *Server) DeleteCoffee(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFoundBody(coffeeNotFound))
		return
	}

	if err := s.coffees.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err, coffeeNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func coffeeToSummary(c domain.Coffee) coffeeSummary {
	return coffeeSummary{
		ID:          c.ID,
		Title:       c.Title,
		TimeMinutes: c.TimeMinutes,
		Price:       c.Price,
		Link:        c.Link,
		Tags:        nonNil(c.TagIDs),
		Items:       nonNil(c.ItemIDs),
	}
}

func coffeeToDetail(c domain.Coffee) coffeeDetail {
	return coffeeDetail{
		ID:          c.ID,
		Title:       c.Title,
		TimeMinutes: c.TimeMinutes,
		Price:       c.Price,
		Link:        c.Link,
		Tags:        attributesToResponse(c.Tags),
		Items:       attributesToResponse(c.Items),
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// deref returns the value p points to, or the zero value when p is nil.
func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
