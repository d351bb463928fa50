package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
)

type attributeRequest struct {
	Name string `json:"name"`
}

type attributeResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// listAttributes handles GET /tags and GET /items. Only the caller's own
// records are returned, ordered by name descending.
func (s *Server) listAttributes(svc AttributeServicer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		attrs, err := svc.List(r.Context(), userID)
		if err != nil {
			s.writeError(w, r, err, svc.Kind().Name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, attributesToResponse(attrs))
	}
}

// createAttribute handles POST /tags and POST /items. The new record is owned
// by the caller.
func (s *Server) createAttribute(svc AttributeServicer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		var req attributeRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		a, err := svc.Create(r.Context(), userID, req.Name)
		if err != nil {
			s.writeError(w, r, err, svc.Kind().Name+" not found")
			return
		}
		writeJSON(w, http.StatusCreated, attributeToResponse(a))
	}
}

func attributeToResponse(a domain.Attribute) attributeResponse {
	return attributeResponse{ID: a.ID, Name: a.Name}
}

// attributesToResponse never returns nil so an empty list renders as [].
func attributesToResponse(attrs []domain.Attribute) []attributeResponse {
	out := make([]attributeResponse, len(attrs))
	for i, a := range attrs {
		out[i] = attributeToResponse(a)
	}
	return out
}
