package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/mcqgen/internal/api"
)

// StaticKeyAuth requires "Authorization: Bearer <key>" on every request.
// An empty key disables the check.
func StaticKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
