package pattern

import (
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// maxSuggestions is the number of categories SuggestCategories returns at most.
const maxSuggestions = 3

// Suggestion is a ranked category candidate for a merchant.
type Suggestion struct {
	Category model.Category `json:"category"`
	Reason   string         `json:"reason"`
	Hits     int            `json:"hits"`
}

// SuggestCategories ranks categories for a merchant and free-form description
// by keyword hits. It always returns at least one suggestion, falling back to
// Miscellaneous.
func SuggestCategories(merchant, description string) []Suggestion {
	return suggestFrom(DefaultCatalog, DefaultKeywordIndex, merchant, description)
}

// Suggest ranks categories using the extractor's own catalog and keyword index.
func (e *Extractor) Suggest(merchant, description string) []Suggestion {
	return suggestFrom(e.catalog, e.keywords, merchant, description)
}

func suggestFrom(catalog *Catalog, idx *KeywordIndex, merchant, description string) []Suggestion {
	text := strings.TrimSpace(merchant + " " + description)

	suggestions := make([]Suggestion, 0, maxSuggestions)
	seen := make(map[model.Category]bool)

	if rec, ok := catalog.Lookup(merchant); ok {
		suggestions = append(suggestions, Suggestion{
			Category: rec.Category,
			Reason:   "known merchant " + rec.Name,
		})
		seen[rec.Category] = true
	}

	for _, m := range idx.Ranked(text) {
		if len(suggestions) == maxSuggestions {
			break
		}
		if seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		suggestions = append(suggestions, Suggestion{
			Category: m.Category,
			Hits:     m.Hits,
			Reason:   "keyword match",
		})
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, Suggestion{
			Category: model.CategoryMiscellaneous,
			Reason:   "no keyword matched",
		})
	}
	return suggestions
}
