// File: internal/auth/jwt.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour

// Claims is the identity carried by a session token. Sessions are keyed by
// username, so the token carries it alongside the numeric subject.
type Claims struct {
	UserID   uint
	Username string
}

// GenerateJWT signs a session token for the given identity.
func GenerateJWT(userID uint, username string, secretKey []byte) (string, error) {
	if userID == 0 {
		return "", errors.New("user ID cannot be zero")
	}
	if username == "" {
		return "", errors.New("username cannot be empty")
	}

	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ValidateToken checks the signature and expiry and returns the embedded
// identity.
func ValidateToken(tokenString string, secretKey []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, errors.New("invalid token subject")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, errors.New("invalid token username")
	}

	return &Claims{UserID: uint(sub), Username: username}, nil
}
