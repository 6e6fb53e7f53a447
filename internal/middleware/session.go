package middleware

import (
	"context"
	"net/http"

	"github.com/pixelcove/gallery/internal/response"
	"github.com/pixelcove/gallery/internal/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// sessionKey is the context key for the authenticated session.
const sessionKey contextKey = "session"

// SessionFrom extracts the authenticated session from a request context.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}

// RequireSession returns middleware that validates the session cookie and
// injects the session into the request context. Browser navigation without
// a valid session is redirected to the login page; non-GET requests (the
// upload XHR) get a JSON 401 instead.
func RequireSession(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				deny(w, r)
				return
			}

			s, err := mgr.Parse(cookie.Value)
			if err != nil {
				deny(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	response.Unauthorized(w, "authentication required")
}
