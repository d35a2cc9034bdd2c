// File: internal/services/imagegen/config.go
package imagegen

import (
	"fmt"
	"time"
)

// Config holds the image generation pipeline settings.
type Config struct {
	APIKey        string
	PromptModel   string        // chat model used for prompt synthesis
	ImageModel    string        // text-to-image model
	ImageCount    int           // variants generated per request
	ContextWindow int           // trailing messages used as scene context
	Timeout       time.Duration // per-request timeout
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.PromptModel == "" {
		return fmt.Errorf("prompt model is required")
	}
	if c.ImageModel == "" {
		return fmt.Errorf("image model is required")
	}
	if c.ImageCount <= 0 {
		return fmt.Errorf("image count must be positive")
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("context window must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// DefaultConfig returns the production defaults: four DALL-E 3 variants per
// request, prompts synthesized by gpt-4o from the last five messages.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:        apiKey,
		PromptModel:   "gpt-4o",
		ImageModel:    "dall-e-3",
		ImageCount:    4,
		ContextWindow: 5,
		Timeout:       120 * time.Second,
	}
}
