package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOpenAIURL is the OpenAI API base. Any compatible endpoint works.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// openAIClient implements the Client interface for OpenAI-compatible chat
// completion endpoints.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}

	return &openAIClient{
		httpClient:  newHTTPClient(cfg.timeout()),
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.temperature(),
		maxTokens:   cfg.maxTokens(),
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	ResponseFormat map[string]any  `json:"response_format,omitempty"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

// openAIResponse represents the chat completion response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
		Index        int           `json:"index"`
	} `json:"choices"`
}

type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Complete sends a chat completion request asking for a JSON object.
func (c *openAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
	}

	var resp openAIResponse
	if err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/chat/completions", c.headers(), req, &resp); err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Health lists the models visible to the API key.
func (c *openAIClient) Health(ctx context.Context) error {
	var resp openAIModelsResponse
	if err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/models", c.headers(), nil, &resp); err != nil {
		return fmt.Errorf("openai health: %w", err)
	}
	return nil
}

func (c *openAIClient) Model() string {
	return c.model
}

func (c *openAIClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
