// Package service contains the business logic for the Coffee API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// Every operation takes the requesting user's id explicitly; nothing is read
// from ambient request state. No SQL lives here: services depend on repo
// interfaces, not implementations.
package service

import (
	"errors"
	"maps"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
)

// dedupeIDs drops repeated ids, keeping the first occurrence of each.
// The result is never nil.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// collectFields copies the field problems of a *domain.ValidationError into
// fields. Any other non-nil error is returned unchanged.
func collectFields(fields map[string]string, err error) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	maps.Copy(fields, verr.Fields)
	return nil
}
