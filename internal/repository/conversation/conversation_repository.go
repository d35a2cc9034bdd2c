// File: internal/repository/conversation/conversation_repository.go
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

var ErrConversationNotFound = errors.New("conversation not found")

type gormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

// Create allocates a random id rather than a wall-clock timestamp so that two
// conversations created in the same instant cannot collide.
func (r *gormConversationRepository) Create(ctx context.Context, username string) (string, error) {
	if err := r.validateOwner(username); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	return uuid.NewString(), nil
}

func (r *gormConversationRepository) Save(ctx context.Context, username, conversationID string, messages domain.Messages) error {
	if err := r.validateKey(username, conversationID); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Guard against persisting conversations with no content.
	if len(messages) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Conversation
		err := tx.Where("username = ? AND conversation_id = ?", username, conversationID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := domain.Conversation{
				Username:       username,
				ConversationID: conversationID,
				Messages:       messages,
				CreatedAt:      now,
				LastUpdated:    now,
			}
			if err := tx.Create(&record).Error; err != nil {
				log.Printf("[ConversationRepository] Database error inserting conversation for user %q: %v", username, err)
				return errors.New("database error saving conversation")
			}
			return nil
		case err != nil:
			log.Printf("[ConversationRepository] Database error loading conversation for save: %v", err)
			return errors.New("database error saving conversation")
		}

		updates := map[string]any{
			"messages":     messages,
			"last_updated": now,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			log.Printf("[ConversationRepository] Database error updating conversation ID %q: %v", conversationID, err)
			return errors.New("database error saving conversation")
		}
		return nil
	})
}

// Load returns an empty sequence for a conversation that has never been
// saved; brand-new conversations have no backing record by design.
func (r *gormConversationRepository) Load(ctx context.Context, username, conversationID string) (domain.Messages, error) {
	if err := r.validateKey(username, conversationID); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var record domain.Conversation
	err := r.db.WithContext(ctx).
		Where("username = ? AND conversation_id = ?", username, conversationID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Messages{}, nil
	}
	if err != nil {
		log.Printf("[ConversationRepository] Database error loading conversation ID %q: %v", conversationID, err)
		return nil, errors.New("database error loading conversation")
	}
	return record.Messages, nil
}

func (r *gormConversationRepository) List(ctx context.Context, username string) ([]domain.ConversationSummary, error) {
	if err := r.validateOwner(username); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var records []domain.Conversation
	err := r.db.WithContext(ctx).
		Select("conversation_id", "name", "created_at", "last_updated").
		Where("username = ?", username).
		Order("last_updated DESC").
		Find(&records).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error listing conversations for user %q: %v", username, err)
		return nil, errors.New("database error listing conversations")
	}

	summaries := make([]domain.ConversationSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, domain.ConversationSummary{
			ConversationID: rec.ConversationID,
			Name:           rec.Name,
			CreatedAt:      rec.CreatedAt,
			LastUpdated:    rec.LastUpdated,
		})
	}
	return summaries, nil
}

func (r *gormConversationRepository) Rename(ctx context.Context, username, conversationID, name string) error {
	if err := r.validateKey(username, conversationID); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.validateName(name); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("username = ? AND conversation_id = ?", username, conversationID).
		Updates(map[string]any{"name": name, "last_updated": time.Now().UTC()})
	if result.Error != nil {
		log.Printf("[ConversationRepository] Database error renaming conversation ID %q: %v", conversationID, result.Error)
		return errors.New("database error renaming conversation")
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *gormConversationRepository) Delete(ctx context.Context, username, conversationID string) error {
	if err := r.validateKey(username, conversationID); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).
		Where("username = ? AND conversation_id = ?", username, conversationID).
		Delete(&domain.Conversation{})
	if result.Error != nil {
		log.Printf("[ConversationRepository] Database error deleting conversation ID %q: %v", conversationID, result.Error)
		return errors.New("database error deleting conversation")
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// ===== VALIDATION HELPERS =====

func (r *gormConversationRepository) validateOwner(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	return nil
}

func (r *gormConversationRepository) validateKey(username, conversationID string) error {
	if err := r.validateOwner(username); err != nil {
		return err
	}
	if conversationID == "" {
		return errors.New("conversation ID is required")
	}
	return nil
}

func (r *gormConversationRepository) validateName(name string) error {
	if len(name) > 200 {
		return errors.New("name must be 200 characters or less")
	}
	return nil
}
