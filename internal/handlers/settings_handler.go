// File: internal/handlers/settings_handler.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	userrepo "github.com/greyhelm/ttrpg-buddy/internal/repository/user"
)

// SettingsHandler exposes account profile and preference management.
type SettingsHandler struct {
	Users userrepo.UserRepository
}

func NewSettingsHandler(users userrepo.UserRepository) *SettingsHandler {
	return &SettingsHandler{Users: users}
}

// Profile returns the caller's account details.
func (h *SettingsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.Users.FindByID(r.Context(), userID)
	if err != nil {
		log.Printf("[SettingsHandler] profile lookup failed: %v", err)
		writeError(w, "Could not load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the display name and email.
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Users.FindByID(r.Context(), userID)
	if err != nil {
		log.Printf("[SettingsHandler] profile lookup failed: %v", err)
		writeError(w, "Could not load profile", http.StatusInternalServerError)
		return
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.TrimSpace(req.Email)
	if err := h.Users.Update(r.Context(), user); err != nil {
		log.Printf("[SettingsHandler] profile update failed: %v", err)
		writeError(w, "Could not update profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword verifies the current password and stores a new one. Reusing
// the current password is rejected.
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Users.FindByID(r.Context(), userID)
	if err != nil {
		log.Printf("[SettingsHandler] profile lookup failed: %v", err)
		writeError(w, "Could not load profile", http.StatusInternalServerError)
		return
	}

	if err := user.ValidatePassword(req.CurrentPassword); err != nil {
		writeError(w, "Current password is incorrect.", http.StatusUnauthorized)
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeError(w, "New password must differ from the current one.", http.StatusBadRequest)
		return
	}
	if err := user.HashPassword(req.NewPassword); err != nil {
		writeError(w, "Password must be at least 8 characters.", http.StatusBadRequest)
		return
	}

	if err := h.Users.Update(r.Context(), user); err != nil {
		log.Printf("[SettingsHandler] password update failed: %v", err)
		writeError(w, "Could not update password", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateHistoryLimit changes how many trailing messages are sent to the
// assistant as context.
func (h *SettingsHandler) UpdateHistoryLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Users.UpdateMessageHistoryLimit(r.Context(), userID, req.Limit); err != nil {
		writeError(w, "History limit must be between 1 and 100.", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"limit": req.Limit})
}
