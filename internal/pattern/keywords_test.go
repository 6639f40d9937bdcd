package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

func TestKeywordIndexBest(t *testing.T) {
	idx := NewKeywordIndex([]CategoryKeywords{
		{model.CategoryShopping, []string{"mall", "shirt"}},
		{model.CategoryEntertainment, []string{"MOVIE", "popcorn"}},
		{model.CategoryTravel, []string{"hotel", "flight", "tour", "trip"}},
	})

	t.Run("ties resolve to the earlier category", func(t *testing.T) {
		match, ok := idx.Best("mall movie")
		require.True(t, ok)
		assert.Equal(t, model.CategoryShopping, match.Category)
		assert.InDelta(t, 0.5, match.Score, 1e-9)
	})

	t.Run("density beats raw hits", func(t *testing.T) {
		match, ok := idx.Best("movie popcorn hotel flight trip")
		require.True(t, ok)
		assert.Equal(t, model.CategoryEntertainment, match.Category)
		assert.Equal(t, 2, match.Hits)
	})

	t.Run("no hits", func(t *testing.T) {
		_, ok := idx.Best("nothing relevant")
		assert.False(t, ok)
	})

	t.Run("ranked by hits", func(t *testing.T) {
		ranked := idx.Ranked("movie hotel flight trip mall")
		require.Len(t, ranked, 3)
		assert.Equal(t, model.CategoryTravel, ranked[0].Category)
		assert.Equal(t, model.CategoryShopping, ranked[1].Category)
		assert.Equal(t, model.CategoryEntertainment, ranked[2].Category)
	})
}

func TestDefaultCatalogLookup(t *testing.T) {
	tests := []struct {
		text        string
		name        string
		category    model.Category
		subcategory string
	}{
		{"STARBUCKS Siam", "Starbucks Coffee", model.CategoryFoodDining, "Coffee"},
		{"กาแฟ สตาร์บัคส์", "Starbucks Coffee", model.CategoryFoodDining, "Coffee"},
		{"7-Eleven Asoke", "7-Eleven", model.CategoryGroceries, "Convenience Store"},
		{"ขึ้น bts ไปทำงาน", "BTS Skytrain", model.CategoryTransportation, "Public Transport"},
		{"Terminal21 food court", "Terminal 21", model.CategoryShopping, "Shopping Mall"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			rec, ok := DefaultCatalog.Lookup(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.name, rec.Name)
			assert.Equal(t, tt.category, rec.Category)
			assert.Equal(t, tt.subcategory, rec.Subcategory)
		})
	}

	_, ok := DefaultCatalog.Lookup("corner noodle stall")
	assert.False(t, ok)
	assert.True(t, DefaultCatalog.IsCanonical("Tesco Lotus"))
	assert.False(t, DefaultCatalog.IsCanonical("tesco"))
}

func TestDefaultKeywordIndexUsesKnownCategories(t *testing.T) {
	for _, e := range DefaultKeywordIndex.entries {
		assert.True(t, e.Category.IsValid(), e.Category)
		assert.NotEmpty(t, e.Keywords)
	}
}

func TestDefaultKeywordIndexAddedCategories(t *testing.T) {
	entries := DefaultKeywordIndex.entries
	require.GreaterOrEqual(t, len(entries), 3)
	tail := entries[len(entries)-3:]
	assert.Equal(t, model.CategoryBillsServices, tail[0].Category)
	assert.Equal(t, model.CategoryTravel, tail[1].Category)
	assert.Equal(t, model.CategoryEducation, tail[2].Category)

	tests := []struct {
		text string
		want model.Category
	}{
		{"ค่าไฟ เดือนนี้", model.CategoryBillsServices},
		{"agoda hotel booking", model.CategoryTravel},
		{"ค่าเทอม", model.CategoryEducation},
		{"ข้าวมันไก่", model.CategoryFoodDining},
	}
	for _, tt := range tests {
		match, ok := DefaultKeywordIndex.Best(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.want, match.Category, tt.text)
	}
}
