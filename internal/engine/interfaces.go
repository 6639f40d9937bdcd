package engine

import (
	"context"
	"time"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// Enhancer defines the contract for the AI collaborator that corrects or
// completes a local extraction.
type Enhancer interface {
	Enhance(ctx context.Context, req service.EnhanceRequest) (model.ExtractionResult, error)
	Available(ctx context.Context) bool
	Model() string
}

// TextRecognizer turns a receipt image into text.
type TextRecognizer interface {
	ExtractText(ctx context.Context, image []byte) (service.OCRResult, error)
}

// Cache stores serialized results under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
