package llm

import (
	"fmt"
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
)

// NewClient creates a provider client based on the provided configuration.
// An empty provider selects Ollama.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOllama, "":
		return newOllamaClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderGemini:
		return newGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
