package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExtractionResultClone(t *testing.T) {
	original := ExtractionResult{
		Merchant:          Ptr("Starbucks Coffee"),
		Amount:            Ptr(decimal.NewFromInt(120)),
		Category:          Ptr(CategoryFoodDining),
		ExtractionDetails: map[string]any{DetailLanguage: "en"},
		Confidence:        0.9,
	}

	clone := original.Clone()
	*clone.Merchant = "Other"
	clone.ExtractionDetails[DetailLanguage] = "th"

	assert.Equal(t, "Starbucks Coffee", *original.Merchant)
	assert.Equal(t, "en", original.ExtractionDetails[DetailLanguage])
	assert.Nil(t, clone.PaymentMethod)
}

func TestExtractionResultFields(t *testing.T) {
	var empty ExtractionResult
	assert.False(t, empty.HasAnyField())
	assert.Empty(t, empty.PopulatedFields())

	r := ExtractionResult{
		Amount:        Ptr(decimal.NewFromInt(50)),
		PaymentMethod: Ptr(PaymentCash),
	}
	assert.True(t, r.HasAnyField())
	assert.Equal(t, []string{"amount", "payment_method"}, r.PopulatedFields())

	withDetail := r.WithDetail(DetailAIError, "timeout")
	_, ok := r.Detail(DetailAIError)
	assert.False(t, ok)
	v, ok := withDetail.Detail(DetailAIError)
	assert.True(t, ok)
	assert.Equal(t, "timeout", v)
}
