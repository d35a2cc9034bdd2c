// File: internal/handlers/auth_handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/greyhelm/ttrpg-buddy/internal/auth"
	"github.com/greyhelm/ttrpg-buddy/internal/domain"
	userrepo "github.com/greyhelm/ttrpg-buddy/internal/repository/user"
)

var (
	usernameRegex     = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	passwordMinLength = 8
)

// maxFailedLogins locks an account out until the counter is reset.
const maxFailedLogins = 5

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	Users            userrepo.UserRepository
	SecretKey        []byte
	DefaultAssistant string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users userrepo.UserRepository, secretKey []byte, defaultAssistant string) *AuthHandler {
	return &AuthHandler{Users: users, SecretKey: secretKey, DefaultAssistant: defaultAssistant}
}

// validateRegistration ensures username and password meet basic rules.
func validateRegistration(username, password string) string {
	switch {
	case !usernameRegex.MatchString(username):
		return "Username must be 3-20 characters, alphanumeric or underscore."
	case len(password) < passwordMinLength:
		return "Password must be at least 8 characters."
	}
	return ""
}

// Register handles new account creation.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if errMsg := validateRegistration(username, password); errMsg != "" {
		writeError(w, errMsg, http.StatusBadRequest)
		return
	}

	user := &domain.User{
		Username:            username,
		Name:                strings.TrimSpace(req.Name),
		Email:               strings.TrimSpace(req.Email),
		Assistant:           h.DefaultAssistant,
		MessageHistoryLimit: domain.DefaultMessageHistoryLimit,
	}
	if err := user.HashPassword(password); err != nil {
		writeError(w, "Could not process password", http.StatusInternalServerError)
		return
	}

	if _, err := h.Users.Create(r.Context(), user); err != nil {
		log.Printf("Registration error: %v", err)
		writeError(w, "Username is already taken", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"username": user.Username})
}

// Login validates credentials, tracks failed attempts and sets the auth
// cookie on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		writeError(w, "Username and password are required.", http.StatusBadRequest)
		return
	}

	user, err := h.Users.FindByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, userrepo.ErrUserNotFound) {
			log.Printf("Login error: %v", err)
		}
		writeError(w, "Invalid username or password.", http.StatusUnauthorized)
		return
	}

	if user.FailedLoginAttempts >= maxFailedLogins {
		writeError(w, "Account locked after repeated failed logins.", http.StatusForbidden)
		return
	}

	if err := user.ValidatePassword(password); err != nil {
		if err := h.Users.IncrementFailedLogins(r.Context(), user.ID); err != nil {
			log.Printf("Login error: could not record failed attempt: %v", err)
		}
		writeError(w, "Invalid username or password.", http.StatusUnauthorized)
		return
	}

	if err := h.Users.ResetFailedLogins(r.Context(), user.ID); err != nil {
		log.Printf("Login error: could not reset failed attempts: %v", err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, h.SecretKey)
	if err != nil {
		log.Printf("Login error: could not sign token: %v", err)
		writeError(w, "Could not start session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// Logout clears the auth cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
