package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/generative-ai-go/genai"
	googleoption "google.golang.org/api/option"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/llm"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

const defaultGeminiModel = "gemini-1.5-flash"

// allowedMIMETypes are the upload formats the vision model accepts.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

const receiptPrompt = `Read this receipt image. Return every visible line of text from top to bottom, left to right, separated by newlines. Keep Thai and English text exactly as printed, including amounts and dates. Do not summarize, translate or restructure the text.

Also report the language of the receipt ("th" or "en") and your confidence that the text is complete and correctly read, between 0.0 and 1.0.`

// generator is the part of *genai.GenerativeModel the recognizer calls.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini vision recognizer.
type GeminiConfig struct {
	APIKey string
	Model  string
	// SkipPreprocess sends the image as uploaded.
	SkipPreprocess bool
}

// Gemini recognizes receipt text with a Gemini vision model.
type Gemini struct {
	client     *genai.Client
	model      generator
	logger     *slog.Logger
	name       string
	preprocess bool
}

type recognition struct {
	Text       string  `json:"raw_document_text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// NewGemini creates a recognizer backed by the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required for OCR", common.ErrMissingConfig)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, googleoption.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(name)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(8192)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = recognitionSchema()

	g := newGemini(model, name, !cfg.SkipPreprocess, logger)
	g.client = client
	return g, nil
}

func newGemini(model generator, name string, preprocess bool, logger *slog.Logger) *Gemini {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{model: model, name: name, preprocess: preprocess, logger: logger}
}

// ExtractText recognizes the text on a receipt image. Uploads are checked by
// content sniffing; a preprocessing failure falls back to the original image.
func (g *Gemini) ExtractText(ctx context.Context, image []byte) (service.OCRResult, error) {
	if len(image) == 0 {
		return service.OCRResult{}, fmt.Errorf("%w: empty image", common.ErrInvalidInput)
	}

	mime := mimetype.Detect(image).String()
	if !allowedMIMETypes[mime] {
		return service.OCRResult{}, fmt.Errorf("%w: unsupported image type %s", common.ErrInvalidInput, mime)
	}

	data := image
	if g.preprocess {
		processed, err := Preprocess(image)
		if err != nil {
			g.logger.Warn("image preprocessing failed, using original", "error", err)
		} else {
			data, mime = processed, PreprocessedMIME
		}
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.Text(receiptPrompt),
		genai.Blob{MIMEType: mime, Data: data},
	)
	if err != nil {
		return service.OCRResult{}, fmt.Errorf("%w: %w", common.ErrOCRFailed, llm.ClassifyGeminiError(err))
	}

	content := llm.ResponseText(resp)
	if content == "" {
		return service.OCRResult{}, fmt.Errorf("%w: empty response from Gemini", common.ErrOCRFailed)
	}

	rec, err := parseRecognition(content)
	if err != nil {
		return service.OCRResult{}, fmt.Errorf("%w: %w", common.ErrOCRFailed, err)
	}

	result := service.OCRResult{
		Text:       rec.Text,
		Language:   rec.Language,
		Model:      g.name,
		Confidence: max(0, min(1, rec.Confidence)),
	}
	if result.Language != pattern.LanguageThai && result.Language != pattern.LanguageEnglish {
		result.Language = pattern.DetectLanguage(result.Text)
	}

	g.logger.Debug("receipt recognized",
		"model", g.name,
		"confidence", result.Confidence,
		"language", result.Language,
		"text_length", len(result.Text))

	return result, nil
}

// Model returns the vision model name.
func (g *Gemini) Model() string {
	return g.name
}

// Close releases the Gemini client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func parseRecognition(content string) (recognition, error) {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		// Plain text answers are still usable, with no self-reported confidence.
		return recognition{Text: strings.TrimSpace(content)}, nil
	}

	var rec recognition
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return recognition{}, fmt.Errorf("failed to parse recognition: %w", err)
	}
	rec.Text = strings.TrimSpace(rec.Text)
	if rec.Text == "" {
		return recognition{}, fmt.Errorf("no text recognized")
	}
	return rec, nil
}

func recognitionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"raw_document_text": {
				Type:        genai.TypeString,
				Description: "All visible text from the receipt, lines separated by newline",
			},
			"language": {
				Type:        genai.TypeString,
				Description: "th or en",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence in the reading, 0.0 to 1.0",
			},
		},
		Required: []string{"raw_document_text", "confidence"},
	}
}
