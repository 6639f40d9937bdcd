package pattern

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// StructuredRowConfidence is the confidence given to a structured import row
// with at least one usable column.
const StructuredRowConfidence = 0.8

var rowDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
}

// ExtractRow maps a structured import row onto an ExtractionResult. Column
// names are matched case-insensitively: amount or total, merchant or
// description, category, date and payment_method. A missing category is
// predicted from the merchant.
func (e *Extractor) ExtractRow(row map[string]string) model.ExtractionResult {
	cols := make(map[string]string, len(row))
	for k, v := range row {
		cols[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	var result model.ExtractionResult

	if raw := firstNonEmpty(cols, "amount", "total"); raw != "" {
		if amt, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err == nil && !amt.IsNegative() {
			result.Amount = model.Ptr(amt)
		}
	}

	if merchant := firstNonEmpty(cols, "merchant", "description"); merchant != "" {
		result.Merchant = model.Ptr(merchant)
	}

	if raw := cols["category"]; raw != "" {
		result.Category = model.Ptr(model.CategoryFromText(raw))
	} else if result.Merchant != nil {
		category, subcategory, _, ok := e.predictCategory(strings.ToLower(*result.Merchant), result.Merchant)
		if !ok {
			category = model.CategoryMiscellaneous
		}
		result.Category = model.Ptr(category)
		if subcategory != "" {
			result.Subcategory = model.Ptr(subcategory)
		}
	}

	if raw := cols["date"]; raw != "" {
		if d, ok := parseRowDate(raw, e.now().Location()); ok {
			result.TransactionDate = model.Ptr(d)
		}
	}

	if raw := firstNonEmpty(cols, "payment_method", "payment"); raw != "" {
		result.PaymentMethod = model.Ptr(model.NormalizePaymentMethod(raw))
	}

	fields := result.PopulatedFields()
	if len(fields) > 0 {
		result.Confidence = StructuredRowConfidence
	}
	result.ExtractionDetails = map[string]any{
		model.DetailPatternsMatched: len(fields),
		model.DetailExtractor:       "structured",
	}
	return result
}

// RowText renders a row as a single line for raw-text storage and AI prompts.
func RowText(row map[string]string, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		if v := strings.TrimSpace(row[c]); v != "" {
			parts = append(parts, c+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}

func parseRowDate(raw string, loc *time.Location) (time.Time, bool) {
	normalized := strings.ReplaceAll(raw, "/", "-")
	for _, layout := range rowDateLayouts {
		if d, err := time.ParseInLocation(layout, normalized, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(cols map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := cols[k]; v != "" {
			return v
		}
	}
	return ""
}
