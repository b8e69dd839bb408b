package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/swimsteps/internal/i18n"
	"github.com/pavelanni/swimsteps/internal/model"
)

const authRealm = "swimsteps"

// basicAuth requires HTTP basic credentials when a password hash is
// configured. Without one every request passes.
func (h *Handler) basicAuth(next http.Handler) http.Handler {
	if h.config.PasswordHash == "" {
		return next
	}
	hash := []byte(h.config.PasswordHash)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			h.unauthorized(w, r)
			return
		}
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.config.Username)) == 1
		passErr := bcrypt.CompareHashAndPassword(hash, []byte(pass))
		if !userOK || passErr != nil {
			slog.Warn("rejected credentials", "user", user, "remote", r.RemoteAddr)
			h.unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`", charset="UTF-8"`)
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: appI18n.T(r.Context(), "Unauthorized")})
}

// BasePathMiddleware stores the configured base path in the request context
// for link generation.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
