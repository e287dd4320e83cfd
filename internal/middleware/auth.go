package middleware

import (
	"context"
	"net/http"

	"github.com/ayush/spot-finder/backend/internal/auth"
	"github.com/ayush/spot-finder/backend/internal/models"
	"github.com/ayush/spot-finder/backend/internal/respond"
)

// SessionLookup resolves a session cookie to a user id.
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// UserLookup loads the acting user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id any) (*models.User, error)
}

// RequireAuth validates the session cookie and puts the user id into the
// request context.
func RequireAuth(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				respond.Message(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || userID == "" {
				respond.Message(w, http.StatusUnauthorized, "Session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAdmin lets through only users with the admin role. It must run
// after RequireAuth.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := users.GetUserByID(r.Context(), auth.UserID(r.Context()))
			if err != nil {
				respond.Error(w, r, err)
				return
			}
			if !user.IsAdmin() {
				respond.Message(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
