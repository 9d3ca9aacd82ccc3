package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/http/response"
)

// Auth is HTTP middleware that resolves the caller from a bearer credential.
type Auth struct {
	identity auth.IdentityProvider
}

// NewAuth creates a new auth middleware. identity is usually an auth.Chain
// of the API key authenticator and the JWT verifier.
func NewAuth(identity auth.IdentityProvider) *Auth {
	return &Auth{identity: identity}
}

// Validate is a Chi middleware that authenticates "Authorization: Bearer <credential>"
// and stores the principal in the request context.
func (a *Auth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			slog.WarnContext(r.Context(), "authentication failed: missing Authorization header",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "missing Authorization header")
			return
		}

		credential, found := strings.CutPrefix(authHeader, "Bearer ")
		credential = strings.TrimSpace(credential)
		if !found || credential == "" {
			slog.WarnContext(r.Context(), "authentication failed: invalid Authorization header format",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}

		principal, err := a.identity.Identify(r.Context(), credential)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				slog.WarnContext(r.Context(), "authentication failed: invalid or expired credential",
					"path", r.URL.Path,
					"method", r.Method)
			} else {
				slog.ErrorContext(r.Context(), "authentication failed: unexpected error",
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
			}
			response.Unauthorized(w, "invalid or expired credential")
			return
		}

		slog.DebugContext(r.Context(), "authentication successful",
			"path", r.URL.Path,
			"method", r.Method,
			"user_id", principal.UserID,
			"source", principal.Source)

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}
