package router

import (
	"net/http"

	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
)

// locale stores the best supported Accept-Language match in the context and
// announces it through Content-Language.
func locale(tr *i18n.Translator) Middleware {
	return func(next http.Handler) http.Handler {
		if tr == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := tr.Match(r.Header.Values("Accept-Language")...)
			w.Header().Set("Content-Language", lang.String())
			next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), lang)))
		})
	}
}
