package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/coffee-api/internal/auth"
)

// Routes returns the API router. Everything except health, docs, registration
// and token issuance requires a bearer token; unauthenticated requests are
// rejected before any handler or store is reached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("resource not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method "+r.Method+" not allowed"))
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Post("/users", s.RegisterUser)
	r.Post("/users/token", s.CreateToken)

	r.Group(func(r chi.Router) {
		if s.verifier != nil {
			r.Use(auth.Require(s.verifier, s.deny))
		}

		r.Get("/users/me", s.GetMe)

		if s.tags != nil {
			r.Get("/tags", s.listAttributes(s.tags))
			r.Post("/tags", s.createAttribute(s.tags))
		}
		if s.items != nil {
			r.Get("/items", s.listAttributes(s.items))
			r.Post("/items", s.createAttribute(s.items))
		}

		r.Route("/coffees", func(r chi.Router) {
			r.Get("/", s.ListCoffees)
			r.Post("/", s.CreateCoffee)
			r.Get("/{id}", s.GetCoffee)
			r.Put("/{id}", s.ReplaceCoffee)
			r.Patch("/{id}", s.PatchCoffee)
			r.Delete("/{id}", s.DeleteCoffee)
		})
	})

	return r
}
