// File: internal/services/imagegen/service.go
package imagegen

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

const (
	topDownSystemPrompt = "You are an expert at creating perfect prompts for text-to-image AI. " +
		"Your task is to create a detailed, vivid prompt for generating a top-down view image. " +
		"Focus on describing the scene, layout, objects, colors, and atmosphere. " +
		"Do not mention 'battle map' or 'RPG' explicitly. Aim for a 50-75 word description."

	characterSystemPrompt = "You are an expert at creating perfect prompts for text-to-image AI. " +
		"Your task is to create a detailed, vivid prompt for generating a character or monster portrait. " +
		"Focus on describing the character's appearance, clothing, pose, expression, and any notable " +
		"features or items. Aim for a 75-100 word description."
)

// GeneratedImage is the outcome of one image variant. Failed variants carry
// their error instead of a URL so a single provider hiccup degrades one slot
// rather than the whole batch.
type GeneratedImage struct {
	URL string
	Err error
}

// Service runs the two-stage image pipeline: synthesize an optimized
// text-to-image prompt from recent conversation context, then render one or
// more variants from it.
type Service struct {
	config *Config
	client Client
	logger Logger
}

func NewService(config *Config, client Client, logger Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	if client == nil {
		return nil, NewConfigError("client is required")
	}
	return &Service{config: config, client: client, logger: logger}, nil
}

// NewOpenAIClient builds the production client for the configured API key.
func NewOpenAIClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// TopDownPrompt synthesizes an optimized prompt for a top-down scene image
// from the trailing conversation context.
func (s *Service) TopDownPrompt(ctx context.Context, messages domain.Messages) (string, error) {
	scene := s.joinContext(messages)
	if scene == "" {
		return "", NewValidationError("topdown_prompt", "no conversation context available")
	}
	request := fmt.Sprintf("Based on this context, create a detailed top-down view image: %s", scene)
	return s.optimizePrompt(ctx, topDownSystemPrompt, request)
}

// CharacterPrompt synthesizes an optimized prompt for a character or monster
// portrait from the trailing conversation context.
func (s *Service) CharacterPrompt(ctx context.Context, messages domain.Messages) (string, error) {
	scene := s.joinContext(messages)
	if scene == "" {
		return "", NewValidationError("character_prompt", "no conversation context available")
	}
	request := fmt.Sprintf(`Based on the following context, create a detailed prompt for generating a character/monster portrait image:

Context: %s

Your prompt should include:
1. Character's race and class (if applicable)
2. Physical appearance (face, body type, hair, eyes, skin)
3. Clothing and armor
4. Weapons or magical items they might be holding
5. Character's expression and pose
6. Any distinctive features or accessories
7. Background or environment hints (if relevant)

Aim for a vivid, detailed description in about 75-100 words, focusing on visual elements that would make for an interesting and unique character portrait.`, scene)
	return s.optimizePrompt(ctx, characterSystemPrompt, request)
}

func (s *Service) optimizePrompt(ctx context.Context, systemPrompt, request string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: s.config.PromptModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Create an optimal text-to-image prompt based on this description: %s", request)},
		},
	})
	if err != nil {
		return "", NewPromptError("optimize", "prompt synthesis failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", NewPromptError("optimize", "prompt synthesis returned no choices", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateOne renders a single image from an already-synthesized prompt and
// returns its URL.
func (s *Service) GenerateOne(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", NewValidationError("generate", "prompt is required")
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.CreateImage(reqCtx, openai.ImageRequest{
		Model:   s.config.ImageModel,
		Prompt:  prompt,
		Size:    openai.CreateImageSize1024x1024,
		Quality: openai.CreateImageQualityStandard,
		N:       1,
	})
	if err != nil {
		return "", NewGenerationError("generate", "image generation failed", err)
	}
	if len(resp.Data) == 0 {
		return "", NewGenerationError("generate", "image generation returned no data", nil)
	}
	return resp.Data[0].URL, nil
}

// GenerateImages renders the configured number of variants concurrently from
// one prompt. The result slice always has ImageCount entries; a variant that
// failed carries its error in place of a URL.
func (s *Service) GenerateImages(ctx context.Context, prompt string) ([]GeneratedImage, error) {
	if prompt == "" {
		return nil, NewValidationError("generate_batch", "prompt is required")
	}

	results := make([]GeneratedImage, s.config.ImageCount)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			url, err := s.GenerateOne(ctx, prompt)
			if err != nil {
				s.logger.Warn("image variant failed", "slot", slot, "error", err)
				results[slot] = GeneratedImage{Err: err}
				return
			}
			results[slot] = GeneratedImage{URL: url}
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		return results, NewGenerationError("generate_batch", "all image variants failed", results[0].Err)
	}
	if failed > 0 {
		s.logger.Info("image batch completed with partial failures",
			"requested", len(results), "failed", failed)
	}
	return results, nil
}

// joinContext flattens the trailing context window into one space-joined
// string, skipping empty messages.
func (s *Service) joinContext(messages domain.Messages) string {
	window := messages.Window(s.config.ContextWindow)
	parts := make([]string, 0, len(window))
	for _, m := range window {
		if m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, " ")
}
