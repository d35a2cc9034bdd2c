package conversation

import (
	"context"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// ConversationRepository is the persistence surface for conversation records.
// Records are keyed by (username, conversation id); Save always rewrites the
// full message sequence.
type ConversationRepository interface {
	// Create allocates a fresh conversation id for the owner. No record is
	// written until the first Save; empty conversations are never persisted.
	Create(ctx context.Context, username string) (string, error)

	// Save upserts the full message sequence. Saving an empty sequence is a
	// no-op. The creation timestamp is set only on first insert.
	Save(ctx context.Context, username, conversationID string, messages domain.Messages) error

	// Load returns the persisted messages, or an empty sequence when the
	// record does not exist yet.
	Load(ctx context.Context, username, conversationID string) (domain.Messages, error)

	// List returns conversation summaries sorted by last update, newest first.
	List(ctx context.Context, username string) ([]domain.ConversationSummary, error)

	// Rename updates the display name. Returns ErrConversationNotFound when
	// no matching record was modified.
	Rename(ctx context.Context, username, conversationID, name string) error

	// Delete removes the record. Returns ErrConversationNotFound when no
	// matching record existed.
	Delete(ctx context.Context, username, conversationID string) error
}
