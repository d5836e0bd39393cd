package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/mcqgen/internal/api"
)

// decodeJSON decodes the request body into dst and writes the error
// response itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// intOr returns *v, or fallback when v is nil.
func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
