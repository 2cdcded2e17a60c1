package router

import (
	"net/http"

	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws so the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequireScope rejects requests whose bearer token lacks scope. It must run
// after authentication.
func RequireScope(scope string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := jwt.GetAuth(r.Context())
			if claims == nil {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}
			if !claims.HasScope(scope) {
				writeJSON(w, errorResponse{Message: "Insufficient scope"}, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
