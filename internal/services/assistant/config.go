// File: internal/services/assistant/config.go
package assistant

import (
	"fmt"
	"time"
)

type Config struct {
	// APIKey authenticates against the assistant platform.
	APIKey string

	// BaseURL is the root of the platform's OpenAI-compatible chat surface;
	// the per-user assistant name is appended to it.
	BaseURL string

	// Performance configuration
	Timeout    time.Duration // per-attempt deadline
	MaxRetries int           // total attempts, not extra retries
	RetryDelay time.Duration // constant delay between attempts
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ASSISTANT_API_KEY is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("ASSISTANT_BASE_URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:    90 * time.Second,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}
