package pattern

import (
	"regexp"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

const paymentTokens = `(cash|credit|debit|card|visa|mastercard|promptpay|transfer|เงินสด|บัตรเครดิต|บัตร|พร้อมเพย์|โอน)`

var paymentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:with|by|using|paid|ด้วย|จ่าย)\s*` + paymentTokens),
	regexp.MustCompile(`(?i)` + paymentTokens + `(?:\s+(?:card|payment))?`),
}

func findPaymentMethod(text string) (model.PaymentMethod, bool) {
	for _, re := range paymentPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return model.NormalizePaymentMethod(m[1]), true
		}
	}
	return "", false
}
