package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
)

// Authorizer is satisfied by *casbin.Enforcer.
type Authorizer interface {
	Enforce(rvals ...any) (bool, error)
}

// Permission restricts the route to subjects granted act on obj.
func (r *Router) Permission(obj, act string) Option {
	return With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			clm := jwt.GetAuth(req.Context())
			if clm == nil {
				writeMessage(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if r.authorizer == nil {
				slog.ErrorContext(req.Context(), "no authorizer configured", "object", obj, "action", act)
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ok, err := r.authorizer.Enforce(clm.Subject, obj, act)
			if err != nil {
				slog.ErrorContext(req.Context(), "failed to enforce permission", "subject", clm.Subject, "object", obj, "error", err)
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				slog.WarnContext(req.Context(), "permission denied", "subject", clm.Subject, "object", obj, "action", act)
				writeMessage(w, http.StatusForbidden, "Account not allowed")
				return
			}

			next.ServeHTTP(w, req)
		})
	})
}
