package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	db, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testEntry(id, merchant string, amount int64, date time.Time) *model.SpendingEntry {
	return &model.SpendingEntry{
		ID:               id,
		Amount:           decimal.NewFromInt(amount),
		Merchant:         merchant,
		Category:         model.CategoryFoodDining,
		Description:      "Food & Dining at " + merchant,
		Date:             date,
		PaymentMethod:    model.PaymentCash,
		Confidence:       0.8,
		ProcessingMethod: model.MethodNLP,
		RawText:          merchant + " " + decimal.NewFromInt(amount).String(),
		Metadata:         map[string]any{"source": "test"},
		CreatedAt:        date,
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Migrating again is a no-op.
	require.NoError(t, db.Migrate(ctx))
}

func TestNewSQLiteStorageCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "poon.db")
	db, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Migrate(context.Background()))
	assert.Equal(t, path, db.Path())

	_, err = NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveAndGetEntry(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	date := time.Date(2024, 6, 14, 12, 30, 0, 0, time.UTC)

	entry := testEntry("e1", "Starbucks Coffee", 120, date)
	entry.Amount = decimal.RequireFromString("120.50")
	entry.Subcategory = "Coffee"
	require.NoError(t, db.SaveEntry(ctx, entry))

	got, err := db.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Starbucks Coffee", got.Merchant)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("120.50")))
	assert.Equal(t, model.CategoryFoodDining, got.Category)
	assert.Equal(t, "Coffee", got.Subcategory)
	assert.Equal(t, model.PaymentCash, got.PaymentMethod)
	assert.True(t, got.Date.Equal(date))
	assert.Equal(t, "test", got.Metadata["source"])
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)

	_, err = db.GetEntry(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveEntryRejects(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	date := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveEntry(ctx, testEntry("e1", "KFC", 99, date)))

	t.Run("duplicate content", func(t *testing.T) {
		err := db.SaveEntry(ctx, testEntry("e2", "KFC", 99, date))
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := db.SaveEntry(ctx, testEntry("e1", "Grab", 150, date))
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	invalid := []struct {
		mutate func(*model.SpendingEntry)
		name   string
	}{
		{func(e *model.SpendingEntry) { e.ID = "" }, "missing id"},
		{func(e *model.SpendingEntry) { e.Merchant = "" }, "missing merchant"},
		{func(e *model.SpendingEntry) { e.Amount = decimal.NewFromInt(-1) }, "negative amount"},
		{func(e *model.SpendingEntry) { e.Category = "Pets" }, "unknown category"},
		{func(e *model.SpendingEntry) { e.Confidence = 1.2 }, "confidence out of range"},
		{func(e *model.SpendingEntry) { e.Date = time.Time{} }, "missing date"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			entry := testEntry("e9", "Tesco Lotus", 300, date)
			tt.mutate(entry)
			assert.ErrorIs(t, db.SaveEntry(ctx, entry), ErrInvalidEntry)
		})
	}

	assert.ErrorIs(t, db.SaveEntry(ctx, nil), ErrNilParameter)
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, merchant := range []string{"KFC", "Grab", "Tesco Lotus", "Central"} {
		entry := testEntry(merchant, merchant, int64(100*(i+1)), base.AddDate(0, 0, i))
		switch merchant {
		case "Grab":
			entry.Category = model.CategoryTransportation
		case "Tesco Lotus":
			entry.Category = model.CategoryGroceries
		case "Central":
			entry.Category = model.CategoryShopping
		}
		require.NoError(t, db.SaveEntry(ctx, entry))
	}

	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 2)
	transport := model.CategoryTransportation

	tests := []struct {
		name   string
		filter service.EntryFilter
		want   []string
	}{
		{"all newest first", service.EntryFilter{}, []string{"Central", "Tesco Lotus", "Grab", "KFC"}},
		{"date range", service.EntryFilter{StartDate: &start, EndDate: &end}, []string{"Tesco Lotus", "Grab"}},
		{"category", service.EntryFilter{Category: &transport}, []string{"Grab"}},
		{"limit and offset", service.EntryFilter{Limit: 2, Offset: 1}, []string{"Tesco Lotus", "Grab"}},
		{"offset only", service.EntryFilter{Offset: 3}, []string{"KFC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := db.ListEntries(ctx, tt.filter)
			require.NoError(t, err)
			merchants := make([]string, 0, len(entries))
			for _, e := range entries {
				merchants = append(merchants, e.Merchant)
			}
			assert.Equal(t, tt.want, merchants)
		})
	}

	_, err := db.ListEntries(ctx, service.EntryFilter{StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)
	require.NoError(t, db.SaveEntry(ctx, testEntry("e1", "Som Tam", 60, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))

	category := model.CategoryGroceries
	err := db.UpdateEntry(ctx, "e1", service.EntryUpdate{
		Merchant:   model.Ptr(" Som Tam Nua "),
		Category:   &category,
		Confidence: model.Ptr(1.0),
	})
	require.NoError(t, err)

	got, err := db.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Som Tam Nua", got.Merchant)
	assert.Equal(t, model.CategoryGroceries, got.Category)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)

	assert.ErrorIs(t, db.UpdateEntry(ctx, "e1", service.EntryUpdate{}), ErrInvalidUpdate)
	assert.ErrorIs(t, db.UpdateEntry(ctx, "e1", service.EntryUpdate{Confidence: model.Ptr(2.0)}), ErrInvalidUpdate)
	assert.ErrorIs(t, db.UpdateEntry(ctx, "missing", service.EntryUpdate{Merchant: model.Ptr("x")}), common.ErrNotFound)

	require.NoError(t, db.LogProcessing(ctx, &service.ProcessingLog{EntryID: "e1", Stage: "text"}))
	require.NoError(t, db.DeleteEntry(ctx, "e1"))

	_, err = db.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	logs, err := db.GetProcessingLogs(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.ErrorIs(t, db.DeleteEntry(ctx, "e1"), common.ErrNotFound)
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)

	stats, err := db.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.True(t, stats.TotalAmount.IsZero())

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := testEntry("a", "KFC", 100, base)
	a.Amount = decimal.RequireFromString("100.10")
	b := testEntry("b", "Grab", 200, base)
	b.Category = model.CategoryTransportation
	b.ProcessingMethod = model.MethodNLPAI
	b.Confidence = 0.9
	c := testEntry("c", "McDonald's", 50, base)
	c.Amount = decimal.RequireFromString("0.20")
	c.Confidence = 0.4
	for _, e := range []*model.SpendingEntry{a, b, c} {
		require.NoError(t, db.SaveEntry(ctx, e))
	}

	stats, err = db.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, "300.3", stats.TotalAmount.String())
	assert.InDelta(t, 0.7, stats.AverageConfidence, 1e-9)
	assert.Equal(t, map[string]int{model.MethodNLP: 2, model.MethodNLPAI: 1}, stats.MethodBreakdown)
	assert.Equal(t, 2, stats.CategoryBreakdown[model.CategoryFoodDining])
	assert.Equal(t, 1, stats.CategoryBreakdown[model.CategoryTransportation])
}

func TestProcessingLogs(t *testing.T) {
	ctx := context.Background()
	db := newTestStorage(t)

	first := &service.ProcessingLog{EntryID: "e1", Stage: "text", Confidence: 0.56, Duration: 1500 * time.Millisecond}
	second := &service.ProcessingLog{EntryID: "e1", Stage: "ai", Status: "degraded", ErrorMessage: "timeout"}
	require.NoError(t, db.LogProcessing(ctx, first))
	require.NoError(t, db.LogProcessing(ctx, second))
	require.NoError(t, db.LogProcessing(ctx, &service.ProcessingLog{EntryID: "e2", Stage: "text"}))
	assert.NotZero(t, first.ID)

	logs, err := db.GetProcessingLogs(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "text", logs[0].Stage)
	assert.Equal(t, "completed", logs[0].Status)
	assert.Equal(t, 1500*time.Millisecond, logs[0].Duration)
	assert.InDelta(t, 0.56, logs[0].Confidence, 1e-9)
	assert.Equal(t, "degraded", logs[1].Status)
	assert.Equal(t, "timeout", logs[1].ErrorMessage)

	assert.ErrorIs(t, db.LogProcessing(ctx, &service.ProcessingLog{Stage: "text"}), ErrEmptyString)
	assert.ErrorIs(t, db.LogProcessing(ctx, nil), ErrNilParameter)
}
