package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName carries the anonymous visitor id that keys the cart,
// checkout and notification feed. There are no user accounts; the cookie
// is the identity.
const SessionCookieName = "nws_session"

type contextKey string

const sessionKeyContextKey contextKey = "session_key"

// SessionKeyMiddleware reads the visitor's session cookie, minting a fresh
// uuid when it is absent, and puts the key on the request context.
func SessionKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionKey string
		if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
			sessionKey = c.Value
		} else {
			sessionKey = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionKey,
				Path:     "/",
				MaxAge:   int((90 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKeyContextKey, sessionKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionKey(ctx context.Context) string {
	if key, ok := ctx.Value(sessionKeyContextKey).(string); ok {
		return key
	}
	return ""
}
