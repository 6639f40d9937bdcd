package pattern

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const merchantChars = `[a-zA-Zก-๙\s&'.\-]`

var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:\b(?:at|from)|ที่|จาก)\s+(` + merchantChars + `+?)(?:\s+(?:for|with|by|ด้วย|จ่าย)|\s+\d|\s*$)`),
	regexp.MustCompile(`(?i)\b(starbucks|mcdonald|kfc|pizza|burger|tesco|lotus|7-eleven|cp|robinson|central|terminal|emporium|siam|mbk)\b`),
	regexp.MustCompile(`(?i)(` + merchantChars + `+?)(?:\s+(?:store|shop|restaurant|cafe|ร้าน|ห้าง))`),
}

var merchantCaser = cases.Title(language.English)

// findMerchantByPattern applies the merchant heuristics in order and returns a
// whitespace-collapsed, title-cased name.
func findMerchantByPattern(text string) (string, bool) {
	for _, re := range merchantPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := collapseSpaces(m[1])
		name = strings.Trim(name, " .-&'")
		if name == "" {
			continue
		}
		return merchantCaser.String(name), true
	}
	return "", false
}

// NormalizeMerchant returns the canonical catalog name when name contains a
// known alias, otherwise the whitespace-collapsed, title-cased name.
func NormalizeMerchant(name string) string {
	if rec, ok := DefaultCatalog.Lookup(name); ok {
		return rec.Name
	}
	return merchantCaser.String(collapseSpaces(name))
}

// NormalizeMerchant is NormalizeMerchant against the extractor's catalog.
func (e *Extractor) NormalizeMerchant(name string) string {
	if rec, ok := e.catalog.Lookup(name); ok {
		return rec.Name
	}
	return merchantCaser.String(collapseSpaces(name))
}
