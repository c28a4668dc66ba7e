package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// UserIDHeader carries the authenticated user's id. Session issuance and
// token verification happen in the upstream auth layer; Nova only trusts
// the id the proxy injects.
const UserIDHeader = "X-Nova-User-ID"

type ctxKey int

const userIDKey ctxKey = iota

// ProfileEnsurer creates the profile row for users seen for the first time.
type ProfileEnsurer interface {
	EnsureExists(ctx context.Context, id uuid.UUID) error
}

// UserID extracts the authenticated user id from the request context.
func UserID(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithUserID returns a context carrying the given user id. Exposed for tests.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserLoader returns middleware that resolves the authenticated user and
// makes sure their profile row exists.
func UserLoader(profiles ProfileEnsurer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				http.Error(w, `{"error": "unauthenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, `{"error": "invalid user id"}`, http.StatusUnauthorized)
				return
			}

			if err := profiles.EnsureExists(r.Context(), userID); err != nil {
				slog.Error("ensure profile", "error", err, "user_id", userID)
				http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
