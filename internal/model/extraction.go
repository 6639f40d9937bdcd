package model

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"
)

// Extraction detail keys shared by the extractors, the merger and the engine.
const (
	DetailPatternsMatched    = "patterns_matched"
	DetailTextLength         = "text_length"
	DetailLanguage           = "language"
	DetailMerchantNormalized = "merchant_normalized"
	DetailExtractor          = "extractor"
	DetailAIEnhanced         = "ai_enhanced"
	DetailAIModel            = "ai_model"
	DetailAIError            = "ai_error"
	DetailCacheHit           = "cache_hit"
)

// ExtractionResult is the output of a single extraction pass. Every field is
// optional; a nil pointer means the pass found nothing for it.
//
// Values are treated as immutable once returned. Anything that needs to
// change a result works on a Clone.
type ExtractionResult struct {
	Merchant          *string          `json:"merchant,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Category          *Category        `json:"category,omitempty"`
	Subcategory       *string          `json:"subcategory,omitempty"`
	TransactionDate   *time.Time       `json:"date,omitempty"`
	PaymentMethod     *PaymentMethod   `json:"payment_method,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Reasoning         *string          `json:"reasoning,omitempty"`
	ExtractionDetails map[string]any   `json:"extraction_details,omitempty"`
	Confidence        float64          `json:"confidence"`
}

// HasAnyField reports whether at least one extracted field is populated.
func (r ExtractionResult) HasAnyField() bool {
	return r.Merchant != nil ||
		r.Amount != nil ||
		r.Category != nil ||
		r.Subcategory != nil ||
		r.TransactionDate != nil ||
		r.PaymentMethod != nil ||
		r.Description != nil
}

// PopulatedFields returns the JSON names of the populated fields in a fixed order.
func (r ExtractionResult) PopulatedFields() []string {
	var fields []string
	if r.Amount != nil {
		fields = append(fields, "amount")
	}
	if r.Merchant != nil {
		fields = append(fields, "merchant")
	}
	if r.Category != nil {
		fields = append(fields, "category")
	}
	if r.Subcategory != nil {
		fields = append(fields, "subcategory")
	}
	if r.TransactionDate != nil {
		fields = append(fields, "date")
	}
	if r.PaymentMethod != nil {
		fields = append(fields, "payment_method")
	}
	if r.Description != nil {
		fields = append(fields, "description")
	}
	return fields
}

// Clone returns a deep copy of r.
func (r ExtractionResult) Clone() ExtractionResult {
	out := ExtractionResult{
		Merchant:        clonePtr(r.Merchant),
		Amount:          clonePtr(r.Amount),
		Category:        clonePtr(r.Category),
		Subcategory:     clonePtr(r.Subcategory),
		TransactionDate: clonePtr(r.TransactionDate),
		PaymentMethod:   clonePtr(r.PaymentMethod),
		Description:     clonePtr(r.Description),
		Reasoning:       clonePtr(r.Reasoning),
		Confidence:      r.Confidence,
	}
	if r.ExtractionDetails != nil {
		out.ExtractionDetails = maps.Clone(r.ExtractionDetails)
	}
	return out
}

// WithDetail returns a copy of r with key set in the extraction details.
func (r ExtractionResult) WithDetail(key string, value any) ExtractionResult {
	out := r.Clone()
	if out.ExtractionDetails == nil {
		out.ExtractionDetails = make(map[string]any)
	}
	out.ExtractionDetails[key] = value
	return out
}

// Detail returns the extraction detail stored under key.
func (r ExtractionResult) Detail(key string) (any, bool) {
	v, ok := r.ExtractionDetails[key]
	return v, ok
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
