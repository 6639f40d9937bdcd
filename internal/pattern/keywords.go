package pattern

import (
	"strings"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// CategoryKeywords is the keyword list for one category.
type CategoryKeywords struct {
	Category model.Category
	Keywords []string
}

// KeywordIndex scores text against per-category keyword lists. Scoring
// iterates the lists in order, so ties resolve to the earlier category.
type KeywordIndex struct {
	entries []CategoryKeywords
}

// KeywordMatch is the best-scoring category for a text.
type KeywordMatch struct {
	Category model.Category
	Hits     int
	// Score is hits divided by the size of the category's keyword list.
	Score float64
}

// NewKeywordIndex builds an index from entries, lowercasing keywords.
func NewKeywordIndex(entries []CategoryKeywords) *KeywordIndex {
	idx := &KeywordIndex{entries: make([]CategoryKeywords, 0, len(entries))}
	for _, e := range entries {
		kws := make([]string, len(e.Keywords))
		for i, k := range e.Keywords {
			kws[i] = strings.ToLower(k)
		}
		idx.entries = append(idx.entries, CategoryKeywords{Category: e.Category, Keywords: kws})
	}
	return idx
}

// Best returns the category with the highest keyword density in text.
func (idx *KeywordIndex) Best(text string) (KeywordMatch, bool) {
	lower := strings.ToLower(text)

	var best KeywordMatch
	found := false
	for _, e := range idx.entries {
		if len(e.Keywords) == 0 {
			continue
		}
		hits := countHits(lower, e.Keywords)
		if hits == 0 {
			continue
		}
		score := float64(hits) / float64(len(e.Keywords))
		if !found || score > best.Score {
			best = KeywordMatch{Category: e.Category, Hits: hits, Score: score}
			found = true
		}
	}
	return best, found
}

// Ranked returns every category with at least one hit, ordered by hit count
// and then by index order.
func (idx *KeywordIndex) Ranked(text string) []KeywordMatch {
	lower := strings.ToLower(text)

	var matches []KeywordMatch
	for _, e := range idx.entries {
		hits := countHits(lower, e.Keywords)
		if hits == 0 {
			continue
		}
		matches = append(matches, KeywordMatch{
			Category: e.Category,
			Hits:     hits,
			Score:    float64(hits) / float64(len(e.Keywords)),
		})
	}

	// insertion sort keeps equal hit counts in index order
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Hits > matches[j-1].Hits; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches
}

func countHits(lower string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return hits
}

// DefaultKeywordIndex holds the bilingual keyword lists. Matching is by
// substring, so short English words also match inside longer ones.
var DefaultKeywordIndex = NewKeywordIndex([]CategoryKeywords{
	{model.CategoryFoodDining, []string{
		"coffee", "lunch", "dinner", "breakfast", "restaurant", "cafe", "food",
		"eat", "drink", "starbucks", "mcdonald", "kfc", "pizza", "burger",
		"noodle", "rice", "meal", "กิน", "อาหาร", "ร้านอาหาร", "กาแฟ", "ข้าว",
		"ก๋วยเตี๋ยว", "ส้มตำ", "ผัดไท",
	}},
	{model.CategoryTransportation, []string{
		"taxi", "grab", "uber", "bus", "bts", "mrt", "train", "fuel", "gas",
		"petrol", "parking", "แท็กซี่", "รถ", "น้ำมัน", "ลิฟต์", "จอดรถ",
		"รถไฟ", "รถเมล์",
	}},
	{model.CategoryGroceries, []string{
		"grocery", "groceries", "supermarket", "market", "tesco", "lotus",
		"big c", "makro", "ตลาด", "ซื้อของ", "เทสโก้", "โลตัส", "บิ๊กซี", "แม็คโคร",
	}},
	{model.CategoryShopping, []string{
		"shopping", "buy", "purchase", "store", "mall", "clothes", "shirt",
		"shoes", "bag", "central", "robinson", "terminal", "emporium", "siam",
		"mbk", "ห้าง", "เสื้อ", "กางเกง", "รองเท้า", "กระเป๋า",
	}},
	{model.CategoryEntertainment, []string{
		"movie", "cinema", "theater", "game", "entertainment", "concert",
		"show", "หนัง", "เกม", "คอนเสิร์ต", "โรงหนัง",
	}},
	{model.CategoryHealthcare, []string{
		"hospital", "doctor", "clinic", "medicine", "pharmacy", "dental",
		"โรงพยาบาล", "หมอ", "ยา", "คลินิก", "ทันตแพทย์",
	}},
	{model.CategoryBillsServices, []string{
		"bill", "electric", "water bill", "internet", "phone", "mobile plan",
		"insurance", "subscription", "netflix", "spotify", "ค่าไฟ", "ค่าน้ำ",
		"ค่าเน็ต", "ค่าโทรศัพท์", "ค่าเช่า", "ประกัน",
	}},
	{model.CategoryTravel, []string{
		"hotel", "flight", "airline", "airport", "agoda", "resort", "tour",
		"trip", "travel", "โรงแรม", "ตั๋วเครื่องบิน", "เที่ยว", "ที่พัก",
	}},
	{model.CategoryEducation, []string{
		"school", "tuition", "course", "university", "tutor", "textbook",
		"exam", "โรงเรียน", "ค่าเทอม", "หนังสือ", "คอร์ส", "เรียน",
	}},
})
