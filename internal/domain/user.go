// File: internal/domain/user.go
package domain

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultMessageHistoryLimit bounds how many trailing messages are sent as
// model context when the user never configured a limit.
const DefaultMessageHistoryLimit = 10

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`

	// Assistant is the name of the hosted assistant bound to this account.
	Assistant string `json:"assistant"`

	// MessageHistoryLimit is the per-user count of trailing messages sent as
	// model context on each query.
	MessageHistoryLimit int `json:"message_history_limit"`

	FailedLoginAttempts int       `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HistoryLimit returns the configured message-history limit, falling back to
// the default when unset or invalid.
func (u *User) HistoryLimit() int {
	if u.MessageHistoryLimit <= 0 {
		return DefaultMessageHistoryLimit
	}
	return u.MessageHistoryLimit
}

// HashPassword securely hashes the user's password.
func (u *User) HashPassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// ValidatePassword compares a plain-text password with the stored hash.
func (u *User) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) IsValid() error {
	if len(u.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	return nil
}
