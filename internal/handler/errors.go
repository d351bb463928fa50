package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/coffee-api/internal/domain"
)

// errorDetail is the body of every non-2xx response:
// {"error":{"code":"...","message":"...","fields":{...}}}
type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{Error: errorDetail{Code: code, Message: message}}
}

// notFoundBody returns an errorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "coffee not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) errorResponse {
	return errorBody("not_found", message)
}

// validationBody returns an errorResponse for a domain validation failure,
// carrying per-field detail when the error has it.
func validationBody(err error) errorResponse {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return errorResponse{Error: errorDetail{
			Code:    "validation_error",
			Message: "invalid input",
			Fields:  verr.Fields,
		}}
	}
	return errorBody("validation_error", unwrapMessage(err))
}

// requestBody returns an errorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) errorResponse {
	return errorBody("validation_error", message)
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "repo.CoffeeRepo.Create: validation error: tag 1234 does not exist" → "tag 1234 does not exist"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 && len(msg) > i+len(prefix) {
		return msg[i+len(prefix):]
	}
	return msg
}

// writeError maps err onto exactly one response class. notFound is the
// message used when err is domain.ErrNotFound.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, validationBody(err))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict", "a user with this email already exists"))
	case errors.Is(err, domain.ErrUnauthorized):
		s.deny(w, r, "authentication credentials were not provided")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}

// deny writes the 401 response. It is also handed to auth.Require.
func (s *Server) deny(w http.ResponseWriter, _ *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", message))
}
