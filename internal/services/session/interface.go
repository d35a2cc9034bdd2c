// File: internal/services/session/interface.go
package session

import (
	"context"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
	"github.com/greyhelm/ttrpg-buddy/internal/services/assistant"
)

// Logger defines the logging interface used by the session manager.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Store is the conversation persistence surface the manager depends on.
type Store interface {
	Create(ctx context.Context, username string) (string, error)
	Save(ctx context.Context, username, conversationID string, messages domain.Messages) error
	Load(ctx context.Context, username, conversationID string) (domain.Messages, error)
	List(ctx context.Context, username string) ([]domain.ConversationSummary, error)
	Rename(ctx context.Context, username, conversationID, name string) error
	Delete(ctx context.Context, username, conversationID string) error
}

// Users resolves the account-level settings the manager needs: the bound
// assistant name and the message-history limit.
type Users interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Gateway issues one retried, timeout-bounded query to the remote assistant.
type Gateway interface {
	Query(ctx context.Context, assistantName string, history []domain.Message, newText string) (assistant.Stream, error)
}
