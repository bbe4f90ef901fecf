package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/finanbot/finanbot/internal/auth"
	"github.com/finanbot/finanbot/internal/http/respond"
	"github.com/finanbot/finanbot/internal/models"
)

type contextKey string

const userKey contextKey = "current_user"

// RequireUser extracts the bearer token, resolves the current user, and
// stores it on the request context. Token failures and unresolvable
// subjects both end the request with 401.
func RequireUser(tokens *auth.TokenManager, lookup auth.UserLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := auth.ResolveUser(r.Context(), tokens, token, lookup)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				respond.Error(w, http.StatusUnauthorized, "invalid authentication credentials")
			case errors.Is(err, auth.ErrUnauthorized):
				respond.Error(w, http.StatusUnauthorized, "inactive or missing user")
			default:
				respond.Error(w, http.StatusInternalServerError, "failed to resolve user")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin is RequireUser plus a superuser check.
func RequireAdmin(tokens *auth.TokenManager, lookup auth.UserLookup, next http.Handler) http.Handler {
	return RequireUser(tokens, lookup, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if _, err := auth.RequireAdmin(user); err != nil {
			respond.Error(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user stored by RequireUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
