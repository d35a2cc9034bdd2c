// File: internal/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/greyhelm/ttrpg-buddy/internal/middleware"
)

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requireUsername pulls the authenticated username out of the request
// context, writing a 401 when it is missing.
func requireUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok || username == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return username, true
}

// requireUserID pulls the authenticated user ID out of the request context,
// writing a 401 when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok || id == 0 {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}
