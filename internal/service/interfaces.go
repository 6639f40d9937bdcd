// Package service defines the interfaces and shared types for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// EntryFilter defines filtering options for spending entry queries.
type EntryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  *model.Category
	Limit     int
	Offset    int
}

// EntryUpdate carries the user-editable fields of an entry. Nil fields are
// left unchanged.
type EntryUpdate struct {
	Merchant    *string
	Category    *model.Category
	Subcategory *string
	Description *string
	Confidence  *float64
}

// Statistics summarizes the stored entries.
type Statistics struct {
	MethodBreakdown   map[string]int
	CategoryBreakdown map[model.Category]int
	TotalAmount       decimal.Decimal
	TotalEntries      int
	AverageConfidence float64
}

// ProcessingLog records one pipeline stage for an entry or request.
type ProcessingLog struct {
	CreatedAt    time.Time
	EntryID      string
	Stage        string
	Status       string
	ErrorMessage string
	Confidence   float64
	Duration     time.Duration
	ID           int64
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	SaveEntry(ctx context.Context, entry *model.SpendingEntry) error
	GetEntry(ctx context.Context, id string) (*model.SpendingEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.SpendingEntry, error)
	UpdateEntry(ctx context.Context, id string, update EntryUpdate) error
	DeleteEntry(ctx context.Context, id string) error
	GetStatistics(ctx context.Context) (*Statistics, error)

	LogProcessing(ctx context.Context, log *ProcessingLog) error
	GetProcessingLogs(ctx context.Context, entryID string) ([]ProcessingLog, error)

	Migrate(ctx context.Context) error
	Close() error
}

// EnhanceMode selects how the AI collaborator treats the local result.
type EnhanceMode string

const (
	// ModeEnhance asks the model to correct and complete a local result.
	ModeEnhance EnhanceMode = "enhance"
	// ModeParse asks the model to parse the text from scratch.
	ModeParse EnhanceMode = "parse"
)

// EnhanceRequest is the semantic context handed to the AI collaborator.
type EnhanceRequest struct {
	Local          *model.ExtractionResult
	RawText        string
	Language       string
	Mode           EnhanceMode
	WeakFields     []string
	MissingFields  []string
	Categories     []model.Category
	PaymentMethods []model.PaymentMethod
}

// OCRResult is the text recognized from an image.
type OCRResult struct {
	Text       string
	Language   string
	Model      string
	Confidence float64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
