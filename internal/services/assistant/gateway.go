// File: internal/services/assistant/gateway.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// Gateway issues one logical query to the remote assistant with bounded
// retries and a per-attempt deadline. Retries are strictly sequential with a
// constant delay; each failed attempt is logged as a warning, and the whole
// operation fails only after the final attempt is exhausted.
type Gateway struct {
	config   *Config
	provider Provider
	logger   Logger
}

func NewGateway(config *Config, provider Provider, logger Logger) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	return &Gateway{
		config:   config,
		provider: provider,
		logger:   logger,
	}, nil
}

// Query builds the request context (history plus one synthesized user message
// for newText) and returns a live response stream, or a typed error once all
// attempts are exhausted. The per-attempt deadline also bounds consumption of
// the returned stream; the remote call is cancelled rather than abandoned.
func (g *Gateway) Query(ctx context.Context, assistantName string, history []domain.Message, newText string) (Stream, error) {
	messages := make([]domain.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: newText})

	var lastErr error
	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		stream, err := g.attempt(ctx, assistantName, messages)
		if err == nil {
			if attempt > 1 {
				g.logger.Info("assistant query succeeded after retry",
					"attempts", attempt)
			}
			return stream, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, NewTimeoutError(g.config.Timeout, ctx.Err())
		}

		if attempt < g.config.MaxRetries {
			g.logger.Warn("assistant query attempt failed",
				"attempt", attempt,
				"max_retries", g.config.MaxRetries,
				"retry_delay", g.config.RetryDelay.String(),
				"error", err)
			select {
			case <-ctx.Done():
				return nil, NewTimeoutError(g.config.Timeout, ctx.Err())
			case <-time.After(g.config.RetryDelay):
			}
		}
	}

	g.logger.Error("assistant query failed after all attempts",
		"attempts", g.config.MaxRetries, "error", lastErr)
	return nil, &AssistantError{
		Type:      ErrTypeQuery,
		Operation: "query",
		Message:   fmt.Sprintf("assistant query failed after %d attempts", g.config.MaxRetries),
		Attempts:  g.config.MaxRetries,
		Cause:     lastErr,
	}
}

func (g *Gateway) attempt(ctx context.Context, assistantName string, messages []domain.Message) (Stream, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)

	stream, err := g.provider.StreamChat(attemptCtx, assistantName, messages)
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError(g.config.Timeout, err)
		}
		return nil, err
	}

	// The deadline stays live until the stream is done; cancelling here
	// would kill the in-flight response.
	return &deadlineStream{Stream: stream, cancel: cancel}, nil
}

// deadlineStream ties the attempt's cancel function to the stream lifetime.
type deadlineStream struct {
	Stream
	cancel context.CancelFunc
}

func (s *deadlineStream) Close() error {
	s.cancel()
	return s.Stream.Close()
}
