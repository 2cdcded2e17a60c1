package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
)

// middlewareMaintenance answers 503 for route patterns listed in
// app.maintenance.endpoints. A "*" entry blocks every route but /health.
func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			endpoints[strings.TrimSpace(endpoint)] = struct{}{}
		}
	}
	_, all := endpoints["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, blocked := endpoints[route]
			if blocked || (all && route != "/health") {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
