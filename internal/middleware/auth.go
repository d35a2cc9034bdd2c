// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/greyhelm/ttrpg-buddy/internal/auth"
)

// NewJWTMiddleware validates the auth_token cookie and stashes the caller's
// identity in the request context. API routes get a JSON 401 on failure;
// page routes are redirected to the login form with the stale cookie
// cleared.
func NewJWTMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				log.Printf("[AuthMiddleware] Missing auth_token cookie: %v", err)
				reject(w, r)
				return
			}

			claims, err := auth.ValidateToken(cookie.Value, secretKey)
			if err != nil {
				log.Printf("[AuthMiddleware] Invalid token: %v", err)
				clearAuthCookie(w)
				reject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext extracts the authenticated username placed there by
// the JWT middleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// UserIDFromContext extracts the authenticated user ID placed there by the
// JWT middleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok
}

func reject(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
