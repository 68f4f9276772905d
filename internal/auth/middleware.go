package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/safecollab/safecollab/internal/respond"
)

type contextKey int

const userContextKey contextKey = iota

// ContextWithUser returns a new context carrying the given user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the user from the context, or nil if not present.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// SessionMiddleware validates the bearer session token and injects the user
// into the request context. onFailure hooks run for every rejected request.
func SessionMiddleware(sessions SessionLookup, onFailure ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(message string) {
				for _, fn := range onFailure {
					fn()
				}
				respond.ErrorMessage(w, http.StatusUnauthorized, "unauthenticated", message)
			}

			token := ExtractBearerToken(r)
			if token == "" {
				reject("missing or malformed authorization header")
				return
			}

			user, err := sessions.LookupSession(r.Context(), token)
			if err != nil || user == nil {
				reject("invalid or expired session")
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken returns the token from an "Authorization: Bearer" header,
// or "" if the header is absent or malformed.
func ExtractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
