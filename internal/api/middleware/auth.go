package middleware

import (
	"context"
	"net/http"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/service/auth"
)

// SessionResolver looks up the session behind a token.
// *auth.SessionManager satisfies it.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, bool)
}

// AuthMiddleware provides session authentication for routes.
type AuthMiddleware struct {
	sessions SessionResolver
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate resolves the session from the bearer header or the session
// cookie and adds it to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		session, ok := m.sessions.Resolve(r.Context(), token)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithSession(r.Context(), session)))
	})
}

// RequireRole rejects authenticated sessions lacking role. It must run
// after Authenticate.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := shared.SessionFromContext(r.Context())
			if !ok {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !session.HasRole(role) {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, "forbidden",
					"Insufficient permissions", domain.ErrForbidden, shared.WithElevatedLogLevel())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
