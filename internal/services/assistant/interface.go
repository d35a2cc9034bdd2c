// File: internal/services/assistant/interface.go
package assistant

import (
	"context"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// Logger defines the logging interface used by the assistant services.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Chunk is one unit of a streamed assistant response. A chunk with no text
// fragment contributes nothing to the accumulated reply.
type Chunk struct {
	Content string
}

// Stream is a finite, consume-once sequence of chunks representing one
// network response. Recv returns io.EOF when the sequence is exhausted.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Provider issues one streamed chat call against the remote assistant
// identified by name.
type Provider interface {
	StreamChat(ctx context.Context, assistantName string, messages []domain.Message) (Stream, error)
	HealthCheck(ctx context.Context) error
}
