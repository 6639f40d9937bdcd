package llm

import (
	"context"
	"time"
)

// Provider names accepted by NewClient.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Client defines the interface for LLM providers. Complete sends one system
// and user prompt pair and returns the raw model text.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Health(ctx context.Context) error
	Model() string
}

// Config configures a provider client.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Default model settings. The low temperature keeps extraction deterministic.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 800
	DefaultTimeout     = 30 * time.Second
)

func (c Config) temperature() float64 {
	if c.Temperature <= 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
