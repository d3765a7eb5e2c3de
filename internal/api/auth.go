package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/auth"
)

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Role   auth.Role
}

// Authenticator rejects requests without a valid bearer token and attaches
// the caller's identity to the context.
func Authenticator(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			user, err := svc.VerifyToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{
				UserID: user.ID,
				Role:   user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route to callers holding the given role. Runs after
// Authenticator.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			if id.Role != role {
				writeError(w, http.StatusForbidden, "Forbidden: requires "+string(role)+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFrom retrieves the authenticated caller from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
