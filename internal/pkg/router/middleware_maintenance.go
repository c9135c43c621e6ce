package router

import (
	"net/http"
	"slices"

	"github.com/shandysiswandi/fintrack/internal/pkg/config"
)

// maintenance answers 503 for route patterns listed under
// app.maintenance.endpoints. The list is read per request so a config
// reload takes effect without a restart.
func maintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(cfg.GetArray("app.maintenance.endpoints"), routePattern(r)) {
				writeMessage(w, http.StatusServiceUnavailable, "service is under maintenance")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
