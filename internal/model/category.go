package model

import "strings"

// Category is one of the closed set of spending categories.
type Category string

const (
	// CategoryFoodDining covers restaurants, cafes and take-away.
	CategoryFoodDining Category = "Food & Dining"
	// CategoryTransportation covers taxis, ride-sharing, fuel and transit.
	CategoryTransportation Category = "Transportation"
	// CategoryGroceries covers supermarkets, markets and convenience stores.
	CategoryGroceries Category = "Groceries"
	// CategoryShopping covers malls, department stores and retail.
	CategoryShopping Category = "Shopping"
	// CategoryEntertainment covers movies, games and events.
	CategoryEntertainment Category = "Entertainment"
	// CategoryHealthcare covers hospitals, clinics and pharmacies.
	CategoryHealthcare Category = "Healthcare"
	// CategoryBillsServices covers utilities, phone and subscriptions.
	CategoryBillsServices Category = "Bills & Services"
	// CategoryTravel covers hotels, flights and tours.
	CategoryTravel Category = "Travel"
	// CategoryEducation covers tuition, courses and books.
	CategoryEducation Category = "Education"
	// CategoryMiscellaneous is the fallback category.
	CategoryMiscellaneous Category = "Miscellaneous"
)

// Categories lists every category in its canonical order. Keyword scoring
// breaks ties by position in this slice.
var Categories = []Category{
	CategoryFoodDining,
	CategoryTransportation,
	CategoryGroceries,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryBillsServices,
	CategoryTravel,
	CategoryEducation,
	CategoryMiscellaneous,
}

var categoryThaiNames = map[Category]string{
	CategoryFoodDining:     "อาหารและเครื่องดื่ม",
	CategoryTransportation: "การเดินทาง",
	CategoryGroceries:      "ของใช้ประจำวัน",
	CategoryShopping:       "ช้อปปิ้ง",
	CategoryEntertainment:  "บันเทิง",
	CategoryHealthcare:     "สุขภาพ",
	CategoryBillsServices:  "ค่าบิลและบริการ",
	CategoryTravel:         "ท่องเที่ยว",
	CategoryEducation:      "การศึกษา",
	CategoryMiscellaneous:  "อื่นๆ",
}

// thaiCategoryTerms maps single Thai words to a category. Checked in order.
var thaiCategoryTerms = []struct {
	term     string
	category Category
}{
	{"ร้านอาหาร", CategoryFoodDining},
	{"อาหาร", CategoryFoodDining},
	{"กิน", CategoryFoodDining},
	{"กาแฟ", CategoryFoodDining},
	{"ข้าว", CategoryFoodDining},
	{"แท็กซี่", CategoryTransportation},
	{"น้ำมัน", CategoryTransportation},
	{"รถ", CategoryTransportation},
	{"ซื้อของ", CategoryGroceries},
	{"ตลาด", CategoryGroceries},
	{"ห้าง", CategoryShopping},
	{"เสื้อผ้า", CategoryShopping},
	{"หนัง", CategoryEntertainment},
	{"เกม", CategoryEntertainment},
	{"โรงพยาบาล", CategoryHealthcare},
	{"หมอ", CategoryHealthcare},
	{"ยา", CategoryHealthcare},
	{"ค่าไฟ", CategoryBillsServices},
	{"ค่าน้ำ", CategoryBillsServices},
	{"โรงแรม", CategoryTravel},
	{"เรียน", CategoryEducation},
}

func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ThaiName returns the Thai display name, or the English name if none exists.
func (c Category) ThaiName() string {
	if name, ok := categoryThaiNames[c]; ok {
		return name
	}
	return string(c)
}

// IsEssential reports whether the category is day-to-day essential spending.
func (c Category) IsEssential() bool {
	switch c {
	case CategoryFoodDining, CategoryGroceries, CategoryHealthcare, CategoryBillsServices, CategoryTransportation:
		return true
	default:
		return false
	}
}

// ParseCategory matches s against the known category names, ignoring case,
// surrounding whitespace and "and" written in place of "&".
func ParseCategory(s string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", false
	}
	normalized = strings.ReplaceAll(normalized, " and ", " & ")

	for _, c := range Categories {
		if strings.ToLower(string(c)) == normalized {
			return c, true
		}
		if c.ThaiName() == strings.TrimSpace(s) {
			return c, true
		}
	}
	return "", false
}

// CategoryFromText resolves free text to a category: an exact name first,
// then the first Thai term contained in the text. Unknown text maps to
// Miscellaneous.
func CategoryFromText(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}

	lower := strings.ToLower(s)
	for _, entry := range thaiCategoryTerms {
		if strings.Contains(lower, entry.term) {
			return entry.category
		}
	}
	return CategoryMiscellaneous
}
