// File: internal/services/imagegen/interface.go
package imagegen

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Logger defines the logging interface used by the image generation service.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// CompletionClient is the chat-completion surface used for prompt synthesis.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ImageClient is the text-to-image surface used for rendering.
type ImageClient interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// Client combines the two OpenAI surfaces the service needs; *openai.Client
// satisfies it directly.
type Client interface {
	CompletionClient
	ImageClient
}
