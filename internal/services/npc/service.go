// File: internal/services/npc/service.go
package npc

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

const (
	generatorSystemPrompt = "You are a helpful assistant that generates JSON data for NPCs based on chat context."

	generatorUserPrompt = `Based on the conversation above, create a JSON object representing an NPC with the following fields:
name, race, class, level, strength, dexterity, constitution, intelligence, wisdom, charisma,
actions, background, personality_traits, equipment, skills, languages, appearance.
If any information is missing, use reasonable defaults. Ensure all ability scores are between 3 and 20.
For actions, include 2-4 notable abilities or attack actions appropriate for the NPC's class and level.
Each action should have a name and description.
The background should be a brief summary of the NPC's history.
Personality traits should be a list of 2-3 distinct characteristics.
Equipment should be a list of items the NPC carries.
Skills should be a list of proficient skills.
Languages should be a list of languages the NPC speaks.
Appearance should be a brief description of the NPC's physical characteristics.
Only return the JSON object, no other text.`
)

// Logger defines the logging interface used by the NPC generator.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// CompletionClient is the chat-completion surface used for stat block
// generation.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// PortraitProvider supplies the optional character portrait: a prompt
// synthesized from the same conversation context, rendered as one image.
type PortraitProvider interface {
	CharacterPrompt(ctx context.Context, messages domain.Messages) (string, error)
	GenerateOne(ctx context.Context, prompt string) (string, error)
}

// Generator turns recent conversation context into a validated NPC stat
// block, optionally decorated with a portrait URL.
type Generator struct {
	config    *Config
	client    CompletionClient
	portraits PortraitProvider
	logger    Logger
}

// NewGenerator builds a Generator. portraits may be nil, in which case
// records are produced without an image.
func NewGenerator(config *Config, client CompletionClient, portraits PortraitProvider, logger Logger) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	if client == nil {
		return nil, NewConfigError("completion client is required")
	}
	return &Generator{
		config:    config,
		client:    client,
		portraits: portraits,
		logger:    logger,
	}, nil
}

// Generate produces a stat block from the conversation context. The model is
// forced into JSON-object mode and the output is validated before it is
// returned. Portrait generation is best-effort: a failure there is logged and
// the record returned without an image.
func (g *Generator) Generate(ctx context.Context, messages domain.Messages) (*Record, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	chat := make([]openai.ChatCompletionMessage, 0, len(messages)+2)
	chat = append(chat, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: generatorSystemPrompt,
	})
	for _, m := range messages {
		chat = append(chat, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	chat = append(chat, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: generatorUserPrompt,
	})

	resp, err := g.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Messages:    chat,
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, NewGenerationError("generate", "NPC generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewGenerationError("generate", "NPC generation returned no choices", nil)
	}

	record, err := ParseRecord([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, NewParseError("generate", "model produced an invalid NPC record", err)
	}

	g.attachPortrait(ctx, record, messages)
	return record, nil
}

func (g *Generator) attachPortrait(ctx context.Context, record *Record, messages domain.Messages) {
	if g.portraits == nil {
		return
	}
	prompt, err := g.portraits.CharacterPrompt(ctx, messages)
	if err != nil {
		g.logger.Warn("portrait prompt synthesis failed, returning record without image", "error", err)
		return
	}
	url, err := g.portraits.GenerateOne(ctx, prompt)
	if err != nil {
		g.logger.Warn("portrait generation failed, returning record without image", "error", err)
		return
	}
	record.ImageURL = url
}
