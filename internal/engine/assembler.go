package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/confidence"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// Placeholder values for entries whose merchant could not be extracted.
const (
	ReceiptMerchantPlaceholder = "Unknown Merchant"
	TextMerchantPlaceholder    = "Text Entry"
	batchMerchantFormat        = "Import Entry %d"

	fallbackDescription = "Spending entry"
	maxDescriptionRunes = 100
	metadataExtraction  = "extraction"
	metadataReasoning   = "reasoning"
)

// EntryContext describes where an extraction result came from.
type EntryContext struct {
	Metadata  map[string]any
	Source    model.EntrySource
	RowNumber int
}

// Assembler turns extraction results into complete spending entries. It is
// the only place defaults are applied.
type Assembler struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewAssembler creates an assembler. A nil clock uses time.Now and a nil
// logger uses slog.Default.
func NewAssembler(now func() time.Time, logger *slog.Logger) *Assembler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{now: now, newID: uuid.NewString, logger: logger}
}

// Assemble builds a SpendingEntry from result, filling every missing field.
func (a *Assembler) Assemble(result model.ExtractionResult, rawText string, ec EntryContext) model.SpendingEntry {
	now := a.now()

	amount := decimal.Zero
	if result.Amount != nil {
		amount = *result.Amount
		if amount.IsNegative() {
			a.logger.Warn("Negative amount clamped to zero",
				"amount", amount.String(),
				"source", ec.Source)
			amount = decimal.Zero
		}
	}

	merchant := placeholderMerchant(ec)
	if result.Merchant != nil && strings.TrimSpace(*result.Merchant) != "" {
		merchant = *result.Merchant
	}

	category := model.CategoryMiscellaneous
	if result.Category != nil && result.Category.IsValid() {
		category = *result.Category
	}

	date := now
	if result.TransactionDate != nil {
		date = *result.TransactionDate
	}

	entry := model.SpendingEntry{
		ID:               a.newID(),
		Amount:           amount,
		Merchant:         merchant,
		Category:         category,
		Description:      describe(result, rawText),
		Date:             date,
		Confidence:       confidence.Clamp(result.Confidence).Float(),
		ProcessingMethod: processingMethod(ec.Source, result),
		RawText:          rawText,
		Metadata:         entryMetadata(result, ec),
		CreatedAt:        now,
	}
	if result.Subcategory != nil {
		entry.Subcategory = *result.Subcategory
	}
	if result.PaymentMethod != nil {
		entry.PaymentMethod = *result.PaymentMethod
	}
	return entry
}

func placeholderMerchant(ec EntryContext) string {
	switch ec.Source {
	case model.SourceReceipt:
		return ReceiptMerchantPlaceholder
	case model.SourceBatch:
		return fmt.Sprintf(batchMerchantFormat, ec.RowNumber)
	default:
		return TextMerchantPlaceholder
	}
}

// describe prefers an extracted description, then one built from the
// extracted category, merchant and amount, then the start of the raw text.
func describe(result model.ExtractionResult, rawText string) string {
	if result.Description != nil && strings.TrimSpace(*result.Description) != "" {
		return strings.TrimSpace(*result.Description)
	}

	var parts []string
	if result.Category != nil && result.Category.IsValid() {
		parts = append(parts, string(*result.Category))
	}
	if result.Merchant != nil && strings.TrimSpace(*result.Merchant) != "" {
		parts = append(parts, "at "+strings.TrimSpace(*result.Merchant))
	}
	if result.Amount != nil && result.Amount.IsPositive() {
		parts = append(parts, "฿"+result.Amount.StringFixed(2))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	runes := []rune(strings.TrimSpace(rawText))
	if len(runes) > maxDescriptionRunes {
		runes = runes[:maxDescriptionRunes]
	}
	if len(runes) == 0 {
		return fallbackDescription
	}
	return string(runes)
}

func processingMethod(source model.EntrySource, result model.ExtractionResult) string {
	enhanced := false
	if v, ok := result.Detail(model.DetailAIEnhanced); ok {
		enhanced, _ = v.(bool)
	}

	switch source {
	case model.SourceReceipt:
		if enhanced {
			return model.MethodOCRNLPAI
		}
		return model.MethodOCRNLP
	case model.SourceBatch:
		if enhanced {
			return model.MethodBatchNLPAI
		}
		return model.MethodBatchNLP
	default:
		if enhanced {
			return model.MethodNLPAI
		}
		return model.MethodNLP
	}
}

func entryMetadata(result model.ExtractionResult, ec EntryContext) map[string]any {
	metadata := make(map[string]any, len(ec.Metadata)+2)
	maps.Copy(metadata, ec.Metadata)
	if len(result.ExtractionDetails) > 0 {
		metadata[metadataExtraction] = maps.Clone(result.ExtractionDetails)
	}
	if result.Reasoning != nil {
		metadata[metadataReasoning] = *result.Reasoning
	}
	return metadata
}
