package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/coffee-api/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterUser handles POST /users.
func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.Validate(req); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	u, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(u))
}

// CreateToken handles POST /users/token. Bad credentials are a 400, not a 401:
// the request is well-formed but the credentials do not validate.
func (s *Server) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.Validate(req); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	tok, err := s.users.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		ExpiresAt: tok.ExpiresAt.UTC(),
	})
}

// GetMe handles GET /users/me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	u, err := s.users.Me(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

func userToResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}
