package engine

import (
	"maps"
	"math"
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

const defaultReasoning = "AI enhanced"

// MergePolicy sets the confidence of a merged result:
// min(1, max(Floor, local+Boost)).
type MergePolicy struct {
	Floor float64
	Boost float64
}

// DefaultMergePolicy returns the standard merge policy.
func DefaultMergePolicy() MergePolicy {
	return MergePolicy{Floor: 0.85, Boost: 0.2}
}

// Merger combines a local extraction with an AI extraction.
type Merger struct {
	policy MergePolicy
}

// NewMerger creates a merger with the given policy.
func NewMerger(policy MergePolicy) *Merger {
	return &Merger{policy: policy}
}

// Usable reports whether ai carries at least one present, non-empty field.
func Usable(ai model.ExtractionResult) bool {
	return nonEmptyString(ai.Merchant) != nil ||
		ai.Amount != nil ||
		validCategory(ai.Category) != nil ||
		nonEmptyString(ai.Subcategory) != nil ||
		ai.TransactionDate != nil ||
		nonEmptyPayment(ai.PaymentMethod) != nil ||
		nonEmptyString(ai.Description) != nil
}

// Merge overlays the AI result onto the local result field by field. Neither
// input is modified.
func (m *Merger) Merge(local, ai model.ExtractionResult, aiModel string) model.ExtractionResult {
	out := local.Clone()

	if v := nonEmptyString(ai.Merchant); v != nil {
		out.Merchant = v
	}
	if ai.Amount != nil && !ai.Amount.IsNegative() {
		amount := *ai.Amount
		out.Amount = &amount
	}
	if v := validCategory(ai.Category); v != nil {
		out.Category = v
	}
	if v := nonEmptyString(ai.Subcategory); v != nil {
		out.Subcategory = v
	}
	if ai.TransactionDate != nil {
		d := *ai.TransactionDate
		out.TransactionDate = &d
	}
	if v := nonEmptyPayment(ai.PaymentMethod); v != nil {
		out.PaymentMethod = v
	}
	if v := nonEmptyString(ai.Description); v != nil {
		out.Description = v
	}

	out.Confidence = math.Min(1, math.Max(m.policy.Floor, local.Confidence+m.policy.Boost))

	details := make(map[string]any, len(local.ExtractionDetails)+len(ai.ExtractionDetails)+2)
	maps.Copy(details, local.ExtractionDetails)
	maps.Copy(details, ai.ExtractionDetails)
	details[model.DetailAIEnhanced] = true
	details[model.DetailAIModel] = aiModel
	out.ExtractionDetails = details

	if v := nonEmptyString(ai.Reasoning); v != nil {
		out.Reasoning = v
	} else {
		out.Reasoning = model.Ptr(defaultReasoning)
	}

	return out
}

func nonEmptyString(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func validCategory(c *model.Category) *model.Category {
	if c == nil || !c.IsValid() {
		return nil
	}
	v := *c
	return &v
}

func nonEmptyPayment(p *model.PaymentMethod) *model.PaymentMethod {
	if p == nil || strings.TrimSpace(string(*p)) == "" {
		return nil
	}
	v := *p
	return &v
}
