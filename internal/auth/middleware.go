package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const contextKeyUserID contextKey = "user_id"

// Verifier resolves a raw token to the user it identifies.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Require rejects any request without a valid bearer token by calling deny,
// and otherwise attaches the token's user id to the request context.
// It never touches the store, so an anonymous request costs no queries.
//
// Both "Bearer <token>" and "Token <token>" schemes are accepted.
func Require(v Verifier, deny func(w http.ResponseWriter, r *http.Request, msg string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				deny(w, r, "authentication credentials were not provided")
				return
			}

			token, ok := parseAuthorization(header)
			if !ok {
				deny(w, r, "invalid authorization header format")
				return
			}

			userID, err := v.Verify(token)
			if err != nil {
				deny(w, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func parseAuthorization(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// UserIDFromContext returns the authenticated user id set by Require.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKeyUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
