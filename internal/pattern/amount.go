package pattern

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const numberPattern = `(\d+(?:,\d{3})*(?:\.\d{2})?)`

// amountPatterns are tried in order; the first match wins. The bare-number
// fallback refuses digits glued to a date separator so "15/03/2024" is not
// read as an amount.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:บาท|฿)`),
	regexp.MustCompile(`(?i)(?:บาท|฿)\s*` + numberPattern),
	regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:baht)`),
	regexp.MustCompile(`(?i)\$` + numberPattern),
	regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:dollars?|usd)`),
	regexp.MustCompile(`(?:^|[^\d/.,\-])` + numberPattern + `(?:\s|$)`),
}

type amountMatch struct {
	value      decimal.Decimal
	literal    string
	hasDecimal bool
}

// findAmount returns the first positive amount in text.
func findAmount(text string) (amountMatch, bool) {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		literal := strings.ReplaceAll(m[1], ",", "")
		value, err := decimal.NewFromString(literal)
		if err != nil || !value.IsPositive() {
			continue
		}
		return amountMatch{
			value:      value,
			literal:    literal,
			hasDecimal: strings.Contains(literal, "."),
		}, true
	}
	return amountMatch{}, false
}
