package i18n

import (
	"log/slog"
	"net/http"
)

// Middleware puts a localizer for lang into every request context. A
// supported "lang" query parameter wins over lang for that request.
func Middleware(lang string) func(http.Handler) http.Handler {
	loc := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := loc
			if q := r.URL.Query().Get("lang"); q != "" {
				if Supported(q) {
					l = NewLocalizer(q)
				} else {
					slog.Debug("ignoring unsupported language", "lang", q)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), l)))
		})
	}
}
