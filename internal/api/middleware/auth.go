package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/enzo-projet/zogames/internal/api/apierr"
	"github.com/enzo-projet/zogames/internal/model"
	"github.com/enzo-projet/zogames/internal/services/identity"
)

type contextKey string

const userContextKey contextKey = "user"

// Auth creates authentication middleware. The verified user is placed on
// the request context.
func Auth(identityService *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			user, err := identityService.GetUser(r.Context(), identity.Token(token))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user from the context, or nil
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// MustGetUser returns the authenticated user; panics if the auth middleware
// did not run
func MustGetUser(ctx context.Context) *model.User {
	user := GetUser(ctx)
	if user == nil {
		panic("no authenticated user on context")
	}
	return user
}

// extractToken pulls the credential from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
