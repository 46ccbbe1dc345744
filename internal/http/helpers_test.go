package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const testSessionKey = "visitor-1"

// testRouter mounts routes with a fixed session key instead of the cookie
// middleware, so handler tests control the visitor identity directly.
func testRouter(sessionKey string, mount func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), sessionKeyContextKey, sessionKey)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	mount(r)
	return r
}
