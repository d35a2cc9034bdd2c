// File: internal/services/assistant/provider.go
package assistant

import (
	"context"
	"io"
	"strings"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	openai "github.com/sashabaranov/go-openai"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// PineconeProvider talks to hosted Pinecone assistants. Chat goes through the
// platform's OpenAI-compatible endpoint; the platform client exists for
// credential validation and connectivity checks.
type PineconeProvider struct {
	config   *Config
	platform *pinecone.Client
	logger   Logger
}

func NewPineconeProvider(config *Config, logger Logger) (*PineconeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	platform, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:    config.APIKey,
		SourceTag: "ttrpg-buddy",
	})
	if err != nil {
		return nil, NewProviderError("init", "failed to create platform client", err)
	}

	return &PineconeProvider{
		config:   config,
		platform: platform,
		logger:   logger,
	}, nil
}

// chatClient builds an OpenAI-compatible client bound to one assistant. The
// assistant name is part of the endpoint path, not the request body.
func (p *PineconeProvider) chatClient(assistantName string) *openai.Client {
	cc := openai.DefaultConfig(p.config.APIKey)
	cc.BaseURL = strings.TrimRight(p.config.BaseURL, "/") + "/assistant/chat/" + assistantName
	return openai.NewClientWithConfig(cc)
}

func (p *PineconeProvider) StreamChat(ctx context.Context, assistantName string, messages []domain.Message) (Stream, error) {
	if assistantName == "" {
		return nil, NewConfigError("assistant name is required")
	}

	req := openai.ChatCompletionRequest{
		Messages: toChatMessages(messages),
		Stream:   true,
	}
	stream, err := p.chatClient(assistantName).CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, NewProviderError("stream_chat", "failed to open response stream", err)
	}
	return &openaiStream{inner: stream}, nil
}

// HealthCheck probes platform connectivity with the configured credentials.
func (p *PineconeProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.platform.ListIndexes(ctx); err != nil {
		return NewProviderError("health_check", "assistant platform unreachable", err)
	}
	return nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

// openaiStream adapts the SDK stream to the Stream interface.
type openaiStream struct {
	inner *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (Chunk, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		if err == io.EOF {
			return Chunk{}, io.EOF
		}
		return Chunk{}, err
	}
	if len(resp.Choices) == 0 {
		return Chunk{}, nil
	}
	return Chunk{Content: resp.Choices[0].Delta.Content}, nil
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}
