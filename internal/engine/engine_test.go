package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cache"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/metrics"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
	"github.com/vorrawut/poon-ai-service-sub001/internal/storage"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
	return cfg
}

func testExtractor() *pattern.Extractor {
	cfg := pattern.DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	return pattern.NewExtractorWithConfig(cfg)
}

func newTestEngine(t *testing.T, deps Deps, cfg Config) *Engine {
	t.Helper()
	deps.Extractor = testExtractor()
	deps.Now = func() time.Time { return fixedNow }
	return NewWithConfig(deps, cfg)
}

func TestProcessTextHighConfidenceStaysLocal(t *testing.T) {
	enhancer := NewMockEnhancer(model.ExtractionResult{Merchant: model.Ptr("X")})
	e := newTestEngine(t, Deps{Enhancer: enhancer}, fastConfig())

	entry, err := e.ProcessText(context.Background(), TextRequest{
		Text:     "Coffee at Starbucks 120 baht cash",
		Language: pattern.LanguageEnglish,
	})
	require.NoError(t, err)

	assert.Empty(t, enhancer.Requests())
	assert.Equal(t, "Starbucks Coffee", entry.Merchant)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, model.CategoryFoodDining, entry.Category)
	assert.Equal(t, "Coffee", entry.Subcategory)
	assert.Equal(t, model.PaymentCash, entry.PaymentMethod)
	assert.Equal(t, model.MethodNLP, entry.ProcessingMethod)
	assert.Equal(t, "Food & Dining at Starbucks Coffee ฿120.00", entry.Description)
	assert.GreaterOrEqual(t, entry.Confidence, 0.8)
}

func TestProcessTextEscalatesLowConfidence(t *testing.T) {
	enhancer := NewMockEnhancer(model.ExtractionResult{
		Merchant: model.Ptr("X"),
		Amount:   model.Ptr(decimal.NewFromInt(10)),
	})
	e := newTestEngine(t, Deps{Enhancer: enhancer}, fastConfig())

	entry, err := e.ProcessText(context.Background(), TextRequest{Text: "random text with no numbers"})
	require.NoError(t, err)

	assert.Equal(t, "X", entry.Merchant)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(10)))
	assert.InDelta(t, 0.85, entry.Confidence, 1e-9)
	assert.Equal(t, model.MethodNLPAI, entry.ProcessingMethod)

	requests := enhancer.Requests()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, service.ModeEnhance, req.Mode)
	assert.Equal(t, "random text with no numbers", req.RawText)
	assert.Equal(t, pattern.LanguageEnglish, req.Language)
	assert.Equal(t, []string{"amount", "merchant", "category", "date", "payment_method"}, req.MissingFields)
	assert.Len(t, req.Categories, len(model.Categories))
	assert.Len(t, req.PaymentMethods, len(model.PaymentMethods))
	require.NotNil(t, req.Local)
	assert.Zero(t, req.Local.Confidence)
}

func TestAIFailureKeepsLocalResult(t *testing.T) {
	const text = "ซื้อข้าว 50 บาท เงินสด"
	local := testExtractor().Extract(text, pattern.LanguageThai)
	require.Less(t, local.Confidence, 0.7)

	tests := []struct {
		setup        func(*MockEnhancer)
		name         string
		wantRequests int
	}{
		{
			name:         "retries exhausted",
			setup:        func(m *MockEnhancer) { m.Err = context.DeadlineExceeded },
			wantRequests: 3,
		},
		{
			name:         "attempt timeouts",
			setup:        func(m *MockEnhancer) { m.Block = true },
			wantRequests: 3,
		},
		{
			name:         "nothing usable",
			setup:        func(m *MockEnhancer) { m.Result = model.ExtractionResult{Reasoning: model.Ptr("unsure")} },
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer := NewMockEnhancer(model.ExtractionResult{})
			tt.setup(enhancer)
			reg := prometheus.NewRegistry()
			cfg := fastConfig()
			cfg.AITimeout = 5 * time.Millisecond
			e := newTestEngine(t, Deps{Enhancer: enhancer, Metrics: metrics.New(reg)}, cfg)

			result, err := e.ParseText(context.Background(), TextRequest{Text: text, Language: pattern.LanguageThai})
			require.NoError(t, err)

			assert.Len(t, enhancer.Requests(), tt.wantRequests)
			assert.Contains(t, result.ExtractionDetails, model.DetailAIError)
			delete(result.ExtractionDetails, model.DetailAIError)
			assert.Equal(t, local, result)

			expected := `
# HELP poon_ai_failures_total AI enhancement calls that failed or returned nothing usable
# TYPE poon_ai_failures_total counter
poon_ai_failures_total 1
`
			assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "poon_ai_failures_total"))
		})
	}
}

func TestCancellationReturnsLocalResult(t *testing.T) {
	enhancer := NewMockEnhancer(model.ExtractionResult{})
	enhancer.Block = true
	cfg := fastConfig()
	cfg.AITimeout = time.Minute
	e := newTestEngine(t, Deps{Enhancer: enhancer}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result, err := e.ParseText(ctx, TextRequest{Text: "random text with no numbers"})
	require.NoError(t, err)
	assert.Zero(t, result.Confidence)
	assert.Contains(t, result.ExtractionDetails, model.DetailAIError)
	assert.Len(t, enhancer.Requests(), 1)
}

func TestFallbackNotAttempted(t *testing.T) {
	tests := []struct {
		name     string
		enhancer *MockEnhancer
		req      TextRequest
	}{
		{
			name:     "AI unavailable",
			enhancer: &MockEnhancer{Unavailable: true},
			req:      TextRequest{Text: "random text with no numbers"},
		},
		{
			name:     "fallback disabled",
			enhancer: NewMockEnhancer(model.ExtractionResult{Merchant: model.Ptr("X")}),
			req:      TextRequest{Text: "random text with no numbers", DisableFallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Deps{Enhancer: tt.enhancer}, fastConfig())
			entry, err := e.ProcessText(context.Background(), tt.req)
			require.NoError(t, err)

			assert.Empty(t, tt.enhancer.Requests())
			assert.Equal(t, "Text Entry", entry.Merchant)
			assert.Equal(t, model.MethodNLP, entry.ProcessingMethod)
			assert.Zero(t, entry.Confidence)
		})
	}
}

func TestParseTextUsesCache(t *testing.T) {
	enhancer := NewMockEnhancer(model.ExtractionResult{Merchant: model.Ptr("Noodle Shop")})
	mem := cache.NewMemory()
	defer func() { _ = mem.Close() }()
	e := newTestEngine(t, Deps{Enhancer: enhancer, Cache: mem}, fastConfig())
	ctx := context.Background()

	first, err := e.ParseText(ctx, TextRequest{Text: "  random   text with no numbers ", Language: pattern.LanguageEnglish})
	require.NoError(t, err)
	assert.NotContains(t, first.ExtractionDetails, model.DetailCacheHit)

	second, err := e.ParseText(ctx, TextRequest{Text: "random text with no numbers", Language: pattern.LanguageEnglish})
	require.NoError(t, err)
	assert.Equal(t, true, second.ExtractionDetails[model.DetailCacheHit])
	assert.Equal(t, *first.Merchant, *second.Merchant)
	assert.InDelta(t, first.Confidence, second.Confidence, 1e-9)
	assert.Len(t, enhancer.Requests(), 1)
}

func TestParseWithAI(t *testing.T) {
	ctx := context.Background()

	t.Run("no enhancer", func(t *testing.T) {
		e := newTestEngine(t, Deps{}, fastConfig())
		_, err := e.ParseWithAI(ctx, TextRequest{Text: "lunch 50"})
		assert.ErrorIs(t, err, ErrAIUnavailable)
	})

	t.Run("unavailable enhancer", func(t *testing.T) {
		e := newTestEngine(t, Deps{Enhancer: &MockEnhancer{Unavailable: true}}, fastConfig())
		_, err := e.ParseWithAI(ctx, TextRequest{Text: "lunch 50"})
		assert.ErrorIs(t, err, ErrAIUnavailable)
	})

	t.Run("parsed", func(t *testing.T) {
		enhancer := NewMockEnhancer(model.ExtractionResult{
			Merchant:   model.Ptr("Som Tam Nua"),
			Amount:     model.Ptr(decimal.NewFromInt(50)),
			Category:   model.Ptr(model.CategoryFoodDining),
			Confidence: 0.9,
		})
		e := newTestEngine(t, Deps{Enhancer: enhancer}, fastConfig())

		result, err := e.ParseWithAI(ctx, TextRequest{Text: "ส้มตำนัว 50 บาท"})
		require.NoError(t, err)
		assert.Equal(t, "Som Tam Nua", *result.Merchant)
		assert.InDelta(t, 0.9, result.Confidence, 1e-9)
		assert.Equal(t, "mock-model", result.ExtractionDetails[model.DetailAIModel])
		assert.Equal(t, "ai", result.ExtractionDetails[model.DetailExtractor])

		requests := enhancer.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, service.ModeParse, requests[0].Mode)
		assert.Nil(t, requests[0].Local)
		assert.Equal(t, pattern.LanguageThai, requests[0].Language)
	})

	t.Run("failure is an error", func(t *testing.T) {
		enhancer := NewMockEnhancer(model.ExtractionResult{})
		enhancer.Err = errors.New("connection refused")
		e := newTestEngine(t, Deps{Enhancer: enhancer}, fastConfig())

		_, err := e.ParseWithAI(ctx, TextRequest{Text: "lunch 50"})
		assert.ErrorIs(t, err, common.ErrMaxRetries)
	})
}

func TestProcessReceipt(t *testing.T) {
	ctx := context.Background()
	image := []byte("fake image bytes")

	t.Run("recognized and cached", func(t *testing.T) {
		ocr := &MockRecognizer{Result: service.OCRResult{Text: "STARBUCKS\n 120 บาท", Confidence: 0.9, Model: "mock-ocr"}}
		mem := cache.NewMemory()
		defer func() { _ = mem.Close() }()
		e := newTestEngine(t, Deps{OCR: ocr, Cache: mem}, fastConfig())

		entry, err := e.ProcessReceipt(ctx, ReceiptRequest{Image: image, Metadata: map[string]any{"filename": "r.jpg"}})
		require.NoError(t, err)

		assert.Equal(t, "Starbucks Coffee", entry.Merchant)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, model.MethodOCRNLP, entry.ProcessingMethod)
		assert.Equal(t, "STARBUCKS 120 บาท", entry.RawText)
		assert.Equal(t, "r.jpg", entry.Metadata["filename"])
		assert.Equal(t, 0.9, entry.Metadata[MetadataOCRConfidence])
		assert.Equal(t, "mock-ocr", entry.Metadata[MetadataOCRModel])
		assert.InDelta(t, math.Sqrt(0.9*entry.Confidence), entry.Metadata[MetadataOCRNLPConfidence], 1e-9)

		_, err = e.ProcessReceipt(ctx, ReceiptRequest{Image: image})
		require.NoError(t, err)
		assert.Equal(t, 1, ocr.Calls())
	})

	t.Run("low confidence OCR is not cached", func(t *testing.T) {
		ocr := &MockRecognizer{Result: service.OCRResult{Text: "kfc 99", Confidence: 0.4}}
		mem := cache.NewMemory()
		defer func() { _ = mem.Close() }()
		e := newTestEngine(t, Deps{OCR: ocr, Cache: mem}, fastConfig())

		for i := 0; i < 2; i++ {
			_, err := e.ProcessReceipt(ctx, ReceiptRequest{Image: image})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, ocr.Calls())
	})

	t.Run("placeholder merchant", func(t *testing.T) {
		ocr := &MockRecognizer{Result: service.OCRResult{Text: "TOTAL 99.00", Confidence: 0.9}}
		e := newTestEngine(t, Deps{OCR: ocr}, fastConfig())

		entry, err := e.ProcessReceipt(ctx, ReceiptRequest{Image: image, DisableFallback: true})
		require.NoError(t, err)
		assert.Equal(t, "Unknown Merchant", entry.Merchant)
	})

	t.Run("errors", func(t *testing.T) {
		e := newTestEngine(t, Deps{}, fastConfig())
		_, err := e.ProcessReceipt(ctx, ReceiptRequest{Image: image})
		assert.ErrorIs(t, err, common.ErrOCRFailed)

		_, err = e.ProcessReceipt(ctx, ReceiptRequest{})
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		e = newTestEngine(t, Deps{OCR: &MockRecognizer{Err: errors.New("quota")}}, fastConfig())
		_, err = e.ProcessReceipt(ctx, ReceiptRequest{Image: image})
		assert.ErrorIs(t, err, common.ErrOCRFailed)

		e = newTestEngine(t, Deps{OCR: &MockRecognizer{Result: service.OCRResult{Text: " \n "}}}, fastConfig())
		_, err = e.ProcessReceipt(ctx, ReceiptRequest{Image: image})
		assert.ErrorIs(t, err, common.ErrOCRFailed)
	})
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()
	rows := make([]map[string]string, 0, 12)
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]string{
			"merchant": fmt.Sprintf("Shop %d", i),
			"amount":   fmt.Sprintf("%d.50", i+1),
		})
	}
	rows = append(rows,
		map[string]string{"Merchant": "Starbucks", "Amount": "1,200", "Date": "2024/06/01"},
		map[string]string{"unused": ""},
	)

	var (
		mu       sync.Mutex
		progress []int
	)
	e := newTestEngine(t, Deps{}, fastConfig())
	entries, err := e.ProcessBatch(ctx, BatchRequest{
		Rows:    rows,
		Columns: []string{"merchant", "amount"},
		Progress: func(done int) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, len(rows))

	for i := 0; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("Shop %d", i), entries[i].Merchant)
		assert.Equal(t, fmt.Sprintf("%d.5", i+1), entries[i].Amount.String())
		assert.Equal(t, model.MethodBatchNLP, entries[i].ProcessingMethod)
		assert.InDelta(t, 0.8, entries[i].Confidence, 1e-9)
	}

	starbucks := entries[10]
	assert.Equal(t, "Starbucks", starbucks.Merchant)
	assert.Equal(t, model.CategoryFoodDining, starbucks.Category)
	assert.Equal(t, "1200", starbucks.Amount.String())
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), starbucks.Date)

	empty := entries[11]
	assert.Equal(t, "Import Entry 12", empty.Merchant)
	assert.Equal(t, model.CategoryMiscellaneous, empty.Category)
	assert.Zero(t, empty.Confidence)

	assert.Len(t, progress, len(rows))
	assert.Equal(t, len(rows), progress[len(progress)-1])

	_, err = e.ProcessBatch(ctx, BatchRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessBatchEnhancesWeakRows(t *testing.T) {
	enhancer := NewMockEnhancer(model.ExtractionResult{
		Merchant: model.Ptr("Noodle Shop"),
		Amount:   model.Ptr(decimal.NewFromInt(50)),
	})
	e := newTestEngine(t, Deps{Enhancer: enhancer}, fastConfig())

	entries, err := e.ProcessBatch(context.Background(), BatchRequest{
		Rows: []map[string]string{
			{"merchant": "KFC", "amount": "99"},
			{"note": "ก๋วยเตี๋ยว 50 บาท"},
		},
		EnhanceWithAI: true,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, model.MethodBatchNLP, entries[0].ProcessingMethod)
	assert.Equal(t, model.MethodBatchNLPAI, entries[1].ProcessingMethod)
	assert.Equal(t, "Noodle Shop", entries[1].Merchant)
	assert.Equal(t, "note: ก๋วยเตี๋ยว 50 บาท", entries[1].RawText)
	assert.Len(t, enhancer.Requests(), 1)
}

func TestProcessTextSave(t *testing.T) {
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	defer func() { _ = db.Close() }()

	e := newTestEngine(t, Deps{Storage: db}, fastConfig())
	entry, err := e.ProcessText(ctx, TextRequest{Text: "Grab 180 baht visa", Save: true})
	require.NoError(t, err)

	stored, err := db.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grab", stored.Merchant)
	assert.Equal(t, model.PaymentCreditCard, stored.PaymentMethod)

	logs, err := db.GetProcessingLogs(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "text", logs[0].Stage)
	assert.Equal(t, "completed", logs[0].Status)

	e = newTestEngine(t, Deps{}, fastConfig())
	_, err = e.ProcessText(ctx, TextRequest{Text: "Grab 180 baht", Save: true})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestInvalidInput(t *testing.T) {
	e := newTestEngine(t, Deps{}, fastConfig())
	ctx := context.Background()

	_, err := e.ParseText(ctx, TextRequest{Text: " \t\x00 "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = e.ProcessText(ctx, TextRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSuggestAndNormalize(t *testing.T) {
	e := newTestEngine(t, Deps{}, fastConfig())

	suggestions := e.SuggestCategories("starbucks", "coffee")
	require.NotEmpty(t, suggestions)
	assert.Equal(t, model.CategoryFoodDining, suggestions[0].Category)

	assert.Equal(t, "7-Eleven", e.NormalizeMerchant("7-eleven sukhumvit"))
	assert.Equal(t, "Corner Bakery", e.NormalizeMerchant("corner   bakery"))
}
