package user

import (
	"context"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// UserRepository handles user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateMessageHistoryLimit(ctx context.Context, userID uint, limit int) error
	IncrementFailedLogins(ctx context.Context, userID uint) error
	ResetFailedLogins(ctx context.Context, userID uint) error
}
