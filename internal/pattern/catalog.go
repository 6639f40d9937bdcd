// Package pattern extracts spending fields from free Thai and English text
// with regular expressions, a known-merchant catalog and a category keyword
// index.
package pattern

import (
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// MerchantRecord maps one lowercase alias to a canonical merchant.
type MerchantRecord struct {
	Alias       string
	Name        string
	Category    model.Category
	Subcategory string
}

// Catalog is an ordered, read-only list of merchant aliases. Lookups scan in
// order and the first alias contained in the text wins.
type Catalog struct {
	records []MerchantRecord
}

// NewCatalog builds a catalog from records, lowercasing aliases.
func NewCatalog(records []MerchantRecord) *Catalog {
	c := &Catalog{records: make([]MerchantRecord, len(records))}
	for i, r := range records {
		r.Alias = strings.ToLower(r.Alias)
		c.records[i] = r
	}
	return c
}

// Lookup returns the first record whose alias is a substring of text,
// ignoring case.
func (c *Catalog) Lookup(text string) (MerchantRecord, bool) {
	lower := strings.ToLower(text)
	for _, r := range c.records {
		if strings.Contains(lower, r.Alias) {
			return r, true
		}
	}
	return MerchantRecord{}, false
}

// IsCanonical reports whether name is the canonical name of a catalog merchant.
func (c *Catalog) IsCanonical(name string) bool {
	for _, r := range c.records {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Records returns a copy of the catalog entries.
func (c *Catalog) Records() []MerchantRecord {
	out := make([]MerchantRecord, len(c.records))
	copy(out, c.records)
	return out
}

// DefaultCatalog holds the well-known Thai merchants.
var DefaultCatalog = NewCatalog([]MerchantRecord{
	{"starbucks", "Starbucks Coffee", model.CategoryFoodDining, "Coffee"},
	{"starbuck", "Starbucks Coffee", model.CategoryFoodDining, "Coffee"},
	{"สตาร์บัคส์", "Starbucks Coffee", model.CategoryFoodDining, "Coffee"},
	{"mcdonald", "McDonald's", model.CategoryFoodDining, "Fast Food"},
	{"mcdonalds", "McDonald's", model.CategoryFoodDining, "Fast Food"},
	{"แมคโดนัลด์", "McDonald's", model.CategoryFoodDining, "Fast Food"},
	{"kfc", "KFC", model.CategoryFoodDining, "Fast Food"},
	{"เคเอฟซี", "KFC", model.CategoryFoodDining, "Fast Food"},
	{"tesco", "Tesco Lotus", model.CategoryGroceries, "Supermarket"},
	{"lotus", "Tesco Lotus", model.CategoryGroceries, "Supermarket"},
	{"เทสโก้", "Tesco Lotus", model.CategoryGroceries, "Supermarket"},
	{"โลตัส", "Tesco Lotus", model.CategoryGroceries, "Supermarket"},
	{"7-eleven", "7-Eleven", model.CategoryGroceries, "Convenience Store"},
	{"เซเว่น", "7-Eleven", model.CategoryGroceries, "Convenience Store"},
	{"central", "Central", model.CategoryShopping, "Department Store"},
	{"เซ็นทรัล", "Central", model.CategoryShopping, "Department Store"},
	{"terminal", "Terminal 21", model.CategoryShopping, "Shopping Mall"},
	{"เทอร์มินอล", "Terminal 21", model.CategoryShopping, "Shopping Mall"},
	{"siam", "Siam Paragon", model.CategoryShopping, "Shopping Mall"},
	{"สยาม", "Siam Paragon", model.CategoryShopping, "Shopping Mall"},
	{"grab", "Grab", model.CategoryTransportation, "Ride-sharing"},
	{"แกร็บ", "Grab", model.CategoryTransportation, "Ride-sharing"},
	{"bts", "BTS Skytrain", model.CategoryTransportation, "Public Transport"},
	{"mrt", "MRT Subway", model.CategoryTransportation, "Public Transport"},
})
