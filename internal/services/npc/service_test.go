// File: internal/services/npc/service_test.go
package npc

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

type stubLogger struct{}

func (stubLogger) Info(msg string, kv ...interface{})  {}
func (stubLogger) Error(msg string, kv ...interface{}) {}
func (stubLogger) Debug(msg string, kv ...interface{}) {}
func (stubLogger) Warn(msg string, kv ...interface{})  {}

type fakeCompletions struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (c *fakeCompletions) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.content}},
		},
	}, nil
}

type fakePortraits struct {
	promptErr error
	imageErr  error
}

func (p *fakePortraits) CharacterPrompt(ctx context.Context, messages domain.Messages) (string, error) {
	if p.promptErr != nil {
		return "", p.promptErr
	}
	return "a wiry halfling rogue", nil
}

func (p *fakePortraits) GenerateOne(ctx context.Context, prompt string) (string, error) {
	if p.imageErr != nil {
		return "", p.imageErr
	}
	return "https://img.test/portrait.png", nil
}

func chatContext() domain.Messages {
	return domain.Messages{
		{Role: domain.RoleUser, Content: "The party meets a halfling informant."},
		{Role: domain.RoleAssistant, Content: "She trades secrets in the undercity."},
	}
}

func TestGenerate(t *testing.T) {
	t.Run("produces a validated record with a portrait", func(t *testing.T) {
		completions := &fakeCompletions{content: string(validRecordJSON(t, nil))}
		g, err := NewGenerator(DefaultConfig(), completions, &fakePortraits{}, stubLogger{})
		require.NoError(t, err)

		record, err := g.Generate(context.Background(), chatContext())
		require.NoError(t, err)
		assert.Equal(t, "Maera Thistledown", record.Name)
		assert.Equal(t, "https://img.test/portrait.png", record.ImageURL)

		// The model is forced into JSON-object mode with the conversation
		// in the middle of the prompt.
		require.NotNil(t, completions.lastReq.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, completions.lastReq.ResponseFormat.Type)
		require.Len(t, completions.lastReq.Messages, 4)
		assert.Equal(t, openai.ChatMessageRoleSystem, completions.lastReq.Messages[0].Role)
		assert.Equal(t, "The party meets a halfling informant.", completions.lastReq.Messages[1].Content)
	})

	t.Run("portrait failure is non-fatal", func(t *testing.T) {
		completions := &fakeCompletions{content: string(validRecordJSON(t, nil))}
		g, err := NewGenerator(DefaultConfig(), completions, &fakePortraits{imageErr: errors.New("quota")}, stubLogger{})
		require.NoError(t, err)

		record, err := g.Generate(context.Background(), chatContext())
		require.NoError(t, err)
		assert.Empty(t, record.ImageURL)
	})

	t.Run("works without a portrait provider", func(t *testing.T) {
		completions := &fakeCompletions{content: string(validRecordJSON(t, nil))}
		g, err := NewGenerator(DefaultConfig(), completions, nil, stubLogger{})
		require.NoError(t, err)

		record, err := g.Generate(context.Background(), chatContext())
		require.NoError(t, err)
		assert.Empty(t, record.ImageURL)
	})

	t.Run("rejects a malformed model response", func(t *testing.T) {
		completions := &fakeCompletions{content: `{"name": "incomplete"}`}
		g, err := NewGenerator(DefaultConfig(), completions, nil, stubLogger{})
		require.NoError(t, err)

		_, err = g.Generate(context.Background(), chatContext())
		var nerr *NPCError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, ErrTypeParse, nerr.Type)

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("wraps provider failures", func(t *testing.T) {
		completions := &fakeCompletions{err: errors.New("upstream down")}
		g, err := NewGenerator(DefaultConfig(), completions, nil, stubLogger{})
		require.NoError(t, err)

		_, err = g.Generate(context.Background(), chatContext())
		var nerr *NPCError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, ErrTypeGeneration, nerr.Type)
	})
}
