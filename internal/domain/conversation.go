// File: internal/domain/conversation.go
package domain

import (
	"fmt"
	"time"
)

// Conversation is one named, ordered message thread owned by a single user.
// The whole message sequence is persisted as one record; Save always rewrites
// it in full.
type Conversation struct {
	ID             uint      `gorm:"primarykey" json:"-"`
	Username       string    `gorm:"uniqueIndex:idx_owner_conv;not null" json:"username"`
	ConversationID string    `gorm:"uniqueIndex:idx_owner_conv;not null" json:"conversation_id"`
	Name           string    `json:"name"`
	Messages       Messages  `gorm:"serializer:json" json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
}

// ConversationSummary is the listing projection: everything but the messages.
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
}

// DisplayName returns the conversation name, falling back to a label derived
// from the creation timestamp when the user never named it.
func (s ConversationSummary) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Conversation %s", s.CreatedAt.Format("2006-01-02 15:04"))
}
