// File: internal/repository/user/gorm_user_repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// History-limit bounds; anything outside is a configuration mistake.
const (
	minHistoryLimit = 1
	maxHistoryLimit = 100
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.validateUserInput(user); err != nil {
		log.Printf("[UserRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("[UserRepository] Database error during user creation: %v", err)
		return nil, errors.New("database error creating user")
	}
	return user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if id == 0 {
		return nil, errors.New("invalid user ID")
	}

	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}

	var user domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == 0 {
		return errors.New("invalid user ID")
	}
	if err := r.validateUserInput(user); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		log.Printf("[UserRepository] Database error during user update for ID %d: %v", user.ID, err)
		return errors.New("database error updating user")
	}
	return nil
}

func (r *gormUserRepository) UpdateMessageHistoryLimit(ctx context.Context, userID uint, limit int) error {
	if userID == 0 {
		return errors.New("invalid user ID")
	}
	if limit < minHistoryLimit || limit > maxHistoryLimit {
		return fmt.Errorf("history limit must be between %d and %d", minHistoryLimit, maxHistoryLimit)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("message_history_limit", limit)
	if result.Error != nil {
		log.Printf("[UserRepository] Database error updating history limit for user ID %d: %v", userID, result.Error)
		return errors.New("database error updating history limit")
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *gormUserRepository) IncrementFailedLogins(ctx context.Context, userID uint) error {
	if userID == 0 {
		return errors.New("invalid user ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1"))
	if result.Error != nil {
		log.Printf("[UserRepository] Database error incrementing failed logins for user ID %d: %v", userID, result.Error)
		return errors.New("database error updating user")
	}
	return nil
}

func (r *gormUserRepository) ResetFailedLogins(ctx context.Context, userID uint) error {
	if userID == 0 {
		return errors.New("invalid user ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("failed_login_attempts", 0)
	if result.Error != nil {
		log.Printf("[UserRepository] Database error resetting failed logins for user ID %d: %v", userID, result.Error)
		return errors.New("database error updating user")
	}
	return nil
}

// ===== VALIDATION AND ERROR HELPERS =====

func (r *gormUserRepository) validateUserInput(user *domain.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	return user.IsValid()
}

// handleFindError maps record-not-found to the package sentinel and keeps
// database details out of returned errors.
func (r *gormUserRepository) handleFindError(err error, user *domain.User) (*domain.User, error) {
	if err == nil {
		return user, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	log.Printf("[UserRepository] Database error during user lookup: %v", err)
	return nil, errors.New("database query failed")
}
