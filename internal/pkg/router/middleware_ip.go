package router

import (
	"net"
	"net/http"
	"strings"
)

// middlewareIP replaces RemoteAddr with the client address reported by a
// trusted proxy header, falling back to the socket host.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{
		r.Header.Get("True-Client-IP"),
		r.Header.Get("X-Real-IP"),
		first,
	} {
		if candidate = strings.TrimSpace(candidate); net.ParseIP(candidate) != nil {
			return candidate
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
