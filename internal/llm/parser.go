package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// extractionPayload is the loose shape models answer with. Amount and
// confidence arrive as numbers or strings depending on the model.
type extractionPayload struct {
	Amount        any    `json:"amount"`
	Confidence    any    `json:"confidence"`
	Merchant      string `json:"merchant"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	PaymentMethod string `json:"payment_method"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Reasoning     string `json:"reasoning"`
}

// DefaultModelConfidence is assumed when a model returns usable fields
// without a usable confidence. A populated result never reports zero.
const DefaultModelConfidence = 0.8

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

var amountReplacer = strings.NewReplacer("฿", "", "บาท", "", ",", "", "THB", "", "thb", "", "baht", "", "Baht", "")

// cleanMarkdownWrapper strips ``` fences that models like to wrap JSON in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```JSON")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ExtractJSON returns the outermost JSON object in content, or an error when
// there is none.
func ExtractJSON(content string) (string, error) {
	content = cleanMarkdownWrapper(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return content[start : end+1], nil
}

// ParseExtraction coerces a model response into an extraction result. Unknown
// keys are ignored and values outside the closed vocabularies, negative
// amounts and unparseable dates are dropped. It returns common.ErrNoUsableData
// when nothing survives. Dates without a zone are read in loc.
func ParseExtraction(content string, loc *time.Location) (model.ExtractionResult, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	var result model.ExtractionResult
	if amount, ok := parseAmount(payload.Amount); ok {
		result.Amount = &amount
	}
	if s := strings.TrimSpace(payload.Merchant); s != "" && !isNullWord(s) {
		result.Merchant = &s
	}
	if c, ok := model.ParseCategory(payload.Category); ok {
		result.Category = &c
	}
	if s := strings.TrimSpace(payload.Subcategory); s != "" && !isNullWord(s) {
		result.Subcategory = &s
	}
	if p, ok := model.ParsePaymentMethod(payload.PaymentMethod); ok {
		result.PaymentMethod = &p
	}
	if d, ok := parseDate(payload.Date, loc); ok {
		result.TransactionDate = &d
	}
	if s := strings.TrimSpace(payload.Description); s != "" && !isNullWord(s) {
		result.Description = &s
	}
	if s := strings.TrimSpace(payload.Reasoning); s != "" {
		result.Reasoning = &s
	}
	if !result.HasAnyField() {
		return model.ExtractionResult{}, common.ErrNoUsableData
	}

	result.Confidence = DefaultModelConfidence
	if c, ok := parseConfidence(payload.Confidence); ok {
		result.Confidence = c
	}
	return result, nil
}

func parseAmount(v any) (decimal.Decimal, bool) {
	var amount decimal.Decimal
	switch t := v.(type) {
	case float64:
		amount = decimal.NewFromFloat(t)
	case string:
		s := strings.TrimSpace(amountReplacer.Replace(t))
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		amount = d
	default:
		return decimal.Zero, false
	}

	if amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount.Round(2), true
}

// parseConfidence reports false for a missing, unparseable or non-positive
// value. Values above one are capped.
func parseConfidence(v any) (float64, bool) {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		c = f
	default:
		return 0, false
	}
	if math.IsNaN(c) || c <= 0 {
		return 0, false
	}
	return min(1, c), true
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "unknown", "not found":
		return true
	}
	return false
}
