package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

const defaultOllamaModel = "llama3.1:8b"

// ollamaClient implements the Client interface for a local Ollama server.
type ollamaClient struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

func newOllamaClient(cfg Config) *ollamaClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &ollamaClient{
		httpClient:  newHTTPClient(cfg.timeout()),
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.temperature(),
		maxTokens:   cfg.maxTokens(),
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
	Stream  bool          `json:"stream"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Complete sends a non-streaming generate request.
func (c *ollamaClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Format: "json",
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.temperature,
			TopP:        0.9,
			NumPredict:  c.maxTokens,
		},
	}

	var resp ollamaGenerateResponse
	if err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	content := strings.TrimSpace(resp.Response)
	if content == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}
	return content, nil
}

// Health checks that the server answers and has the configured model pulled.
func (c *ollamaClient) Health(ctx context.Context) error {
	var tags ollamaTagsResponse
	if err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/api/tags", nil, nil, &tags); err != nil {
		return fmt.Errorf("ollama health: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == c.model || m.Model == c.model {
			return nil
		}
	}
	return fmt.Errorf("ollama health: model %q not available", c.model)
}

func (c *ollamaClient) Model() string {
	return c.model
}
