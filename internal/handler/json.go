package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// decodeJSON reads the request body into dst. Unknown fields are ignored.
// On failure it writes the error response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var (
		tooLarge  *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		fieldErr  *domain.ValidationError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorBody("request_too_large", fmt.Sprintf("request body must not exceed %d bytes", tooLarge.Limit)))
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, requestBody("request body is required"))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		writeJSON(w, http.StatusBadRequest, requestBody("request body is not valid JSON"))
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, validationBody(fieldErr))
	case errors.As(err, &typeErr) && typeErr.Field != "":
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorDetail{
			Code:    "validation_error",
			Message: "invalid input",
			Fields:  map[string]string{typeErr.Field: "incorrect type, expected " + typeErr.Type.String()},
		}})
	default:
		writeJSON(w, http.StatusBadRequest, requestBody("invalid request body: "+err.Error()))
	}
	return false
}

// pathID binds the {id} path parameter. A value that is not a UUID cannot
// name any record, so it is reported as not found.
func pathID(r *http.Request) (uuid.UUID, bool) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user's id, writing a 401 when the
// request carries none.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.deny(w, r, "authentication credentials were not provided")
	}
	return id, ok
}

// rawAndTyped decodes one body twice: into a generic map, to learn which keys
// were sent, and into the typed request.
type rawAndTyped struct {
	raw   *map[string]any
	typed any
}

func (d *rawAndTyped) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, d.raw); err != nil {
		return err
	}
	return json.Unmarshal(b, d.typed)
}
