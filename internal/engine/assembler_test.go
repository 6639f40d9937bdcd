package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func testAssembler() *Assembler {
	a := NewAssembler(func() time.Time { return fixedNow }, nil)
	a.newID = func() string { return "entry-1" }
	return a
}

func TestAssembleDefaults(t *testing.T) {
	tests := []struct {
		name         string
		ec           EntryContext
		wantMerchant string
		wantMethod   string
	}{
		{"text", EntryContext{Source: model.SourceText}, "Text Entry", model.MethodNLP},
		{"receipt", EntryContext{Source: model.SourceReceipt}, "Unknown Merchant", model.MethodOCRNLP},
		{"batch", EntryContext{Source: model.SourceBatch, RowNumber: 3}, "Import Entry 3", model.MethodBatchNLP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testAssembler().Assemble(model.ExtractionResult{}, "random text with no numbers", tt.ec)

			assert.Equal(t, "entry-1", entry.ID)
			assert.True(t, entry.Amount.IsZero())
			assert.Equal(t, tt.wantMerchant, entry.Merchant)
			assert.Equal(t, model.CategoryMiscellaneous, entry.Category)
			assert.Equal(t, "random text with no numbers", entry.Description)
			assert.Equal(t, fixedNow, entry.Date)
			assert.Equal(t, fixedNow, entry.CreatedAt)
			assert.Empty(t, entry.PaymentMethod)
			assert.Zero(t, entry.Confidence)
			assert.Equal(t, tt.wantMethod, entry.ProcessingMethod)
			assert.Equal(t, "random text with no numbers", entry.RawText)
		})
	}
}

func TestAssembleDescription(t *testing.T) {
	long := strings.Repeat("ก", 150)

	tests := []struct {
		name    string
		result  model.ExtractionResult
		rawText string
		want    string
	}{
		{
			name: "all parts",
			result: model.ExtractionResult{
				Category: model.Ptr(model.CategoryFoodDining),
				Merchant: model.Ptr("Starbucks Coffee"),
				Amount:   model.Ptr(decimal.NewFromInt(120)),
			},
			want: "Food & Dining at Starbucks Coffee ฿120.00",
		},
		{
			name:   "amount only",
			result: model.ExtractionResult{Amount: model.Ptr(decimal.RequireFromString("45.5"))},
			want:   "฿45.50",
		},
		{
			name:   "extracted description wins",
			result: model.ExtractionResult{Description: model.Ptr("Lunch with team"), Merchant: model.Ptr("KFC")},
			want:   "Lunch with team",
		},
		{
			name:    "raw text truncated to 100 runes",
			rawText: long,
			want:    strings.Repeat("ก", 100),
		},
		{
			name: "empty raw text",
			want: "Spending entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := testAssembler().Assemble(tt.result, tt.rawText, EntryContext{Source: model.SourceText})
			assert.Equal(t, tt.want, entry.Description)
		})
	}
}

func TestAssembleClampsValues(t *testing.T) {
	result := model.ExtractionResult{
		Amount:     model.Ptr(decimal.NewFromInt(-20)),
		Confidence: 1.4,
	}
	entry := testAssembler().Assemble(result, "refund 20", EntryContext{Source: model.SourceText})

	assert.True(t, entry.Amount.IsZero())
	assert.InDelta(t, 1.0, entry.Confidence, 1e-9)
}

func TestAssembleCarriesFields(t *testing.T) {
	date := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	result := model.ExtractionResult{
		Merchant:        model.Ptr("Grab"),
		Amount:          model.Ptr(decimal.NewFromInt(180)),
		Category:        model.Ptr(model.CategoryTransportation),
		Subcategory:     model.Ptr("Ride-sharing"),
		TransactionDate: &date,
		PaymentMethod:   model.Ptr(model.PaymentCreditCard),
		Reasoning:       model.Ptr("AI enhanced"),
		Confidence:      0.9,
		ExtractionDetails: map[string]any{
			model.DetailAIEnhanced: true,
		},
	}
	entry := testAssembler().Assemble(result, "grab 180", EntryContext{
		Source:   model.SourceReceipt,
		Metadata: map[string]any{"filename": "r.jpg"},
	})

	assert.Equal(t, "Grab", entry.Merchant)
	assert.Equal(t, "Ride-sharing", entry.Subcategory)
	assert.Equal(t, date, entry.Date)
	assert.Equal(t, model.PaymentCreditCard, entry.PaymentMethod)
	assert.Equal(t, model.MethodOCRNLPAI, entry.ProcessingMethod)
	assert.Equal(t, "r.jpg", entry.Metadata["filename"])
	assert.Equal(t, "AI enhanced", entry.Metadata["reasoning"])
	assert.Contains(t, entry.Metadata, "extraction")
}
