package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
		wantErr   string
	}{
		{name: "default is ollama", cfg: Config{}, wantModel: "llama3.1:8b"},
		{name: "ollama with model", cfg: Config{Provider: "Ollama", Model: "qwen2.5:7b"}, wantModel: "qwen2.5:7b"},
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "k"}, wantModel: "gpt-4o-mini"},
		{name: "openai needs key", cfg: Config{Provider: "openai"}, wantErr: "OpenAI API key is required"},
		{name: "anthropic", cfg: Config{Provider: "anthropic", APIKey: "k"}, wantModel: defaultAnthropicModel},
		{name: "anthropic needs key", cfg: Config{Provider: "anthropic"}, wantErr: "anthropic API key is required"},
		{name: "gemini needs key", cfg: Config{Provider: "gemini"}, wantErr: "gemini API key is required"},
		{name: "unknown provider", cfg: Config{Provider: "llamafile"}, wantErr: "unsupported LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, client.Model())
		})
	}
}

func TestNewClientUnknownProviderIsConfigError(t *testing.T) {
	_, err := NewClient(Config{Provider: "nope"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
