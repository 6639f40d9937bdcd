package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	googleoption "google.golang.org/api/option"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
)

const defaultGeminiModel = "gemini-1.5-flash"

// geminiClient implements the Client interface on the Gemini SDK.
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}

	opts := []googleoption.ClientOption{googleoption.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, googleoption.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(name)
	model.SetTemperature(float32(cfg.temperature()))
	model.SetMaxOutputTokens(int32(cfg.maxTokens()))
	model.ResponseMIMEType = "application/json"

	return &geminiClient{client: client, model: model, name: name}, nil
}

// Complete generates content with the system prompt as system instruction.
// The shared model is copied so concurrent calls do not race on it.
func (c *geminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := *c.model
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", ClassifyGeminiError(err))
	}

	text := ResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

// Health fetches the model metadata.
func (c *geminiClient) Health(ctx context.Context) error {
	if _, err := c.model.Info(ctx); err != nil {
		return fmt.Errorf("gemini health: %w", ClassifyGeminiError(err))
	}
	return nil
}

func (c *geminiClient) Model() string {
	return c.name
}

// Close releases the underlying connection.
func (c *geminiClient) Close() error {
	return c.client.Close()
}

// ResponseText joins the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

// ClassifyGeminiError maps Google API status codes onto the retry taxonomy.
func ClassifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
