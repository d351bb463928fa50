package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist for the requesting owner.
// Handlers map this to HTTP 404. A record owned by another user is reported
// with this same error so ownership cannot be probed.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, unknown tag id).
// Handlers map this to HTTP 400 Bad Request.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when a request carries no usable credential.
// Handlers map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is returned when a write collides with a uniqueness rule
// (e.g. registering an email that is already taken).
// Handlers map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ValidationError carries field-level detail for a failed validation.
// errors.Is(err, ErrValidation) reports true for any *ValidationError.
type ValidationError struct {
	// Fields maps the JSON field name to a human-readable problem.
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Error renders the fields in a stable order, e.g. "price: is required; title: is required".
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
