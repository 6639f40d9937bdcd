package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PaymentMethod is one of the closed set of payment methods.
type PaymentMethod string

// Payment methods common in Thailand.
const (
	PaymentCash          PaymentMethod = "Cash"
	PaymentCreditCard    PaymentMethod = "Credit Card"
	PaymentDebitCard     PaymentMethod = "Debit Card"
	PaymentBankTransfer  PaymentMethod = "Bank Transfer"
	PaymentPromptPay     PaymentMethod = "PromptPay"
	PaymentMobileBanking PaymentMethod = "Mobile Banking"
	PaymentDigitalWallet PaymentMethod = "Digital Wallet"
	PaymentOther         PaymentMethod = "Other"
)

// PaymentMethods lists every payment method in canonical order.
var PaymentMethods = []PaymentMethod{
	PaymentCash,
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentBankTransfer,
	PaymentPromptPay,
	PaymentMobileBanking,
	PaymentDigitalWallet,
	PaymentOther,
}

// paymentTokens maps a lowercase vocabulary token to its payment method.
var paymentTokens = map[string]PaymentMethod{
	"cash":           PaymentCash,
	"เงินสด":         PaymentCash,
	"สด":             PaymentCash,
	"credit":         PaymentCreditCard,
	"credit card":    PaymentCreditCard,
	"visa":           PaymentCreditCard,
	"mastercard":     PaymentCreditCard,
	"บัตรเครดิต":     PaymentCreditCard,
	"เครดิต":         PaymentCreditCard,
	"debit":          PaymentDebitCard,
	"debit card":     PaymentDebitCard,
	"บัตร":           PaymentDebitCard,
	"บัตรเดบิต":      PaymentDebitCard,
	"เดบิต":          PaymentDebitCard,
	"promptpay":      PaymentPromptPay,
	"พร้อมเพย์":      PaymentPromptPay,
	"transfer":       PaymentBankTransfer,
	"bank transfer":  PaymentBankTransfer,
	"โอน":            PaymentBankTransfer,
	"โอนเงิน":        PaymentBankTransfer,
	"mobile banking": PaymentMobileBanking,
	"แอปธนาคาร":      PaymentMobileBanking,
	"wallet":         PaymentDigitalWallet,
	"truemoney":      PaymentDigitalWallet,
	"digital wallet": PaymentDigitalWallet,
}

var titleCaser = cases.Title(language.English)

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether p is one of the known payment methods.
func (p PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePaymentMethod resolves s to a known payment method, accepting both the
// canonical names and the vocabulary tokens. It reports false for anything
// outside the closed set.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	token := strings.ToLower(strings.TrimSpace(s))
	if token == "" {
		return "", false
	}
	for _, p := range PaymentMethods {
		if strings.ToLower(string(p)) == token {
			return p, true
		}
	}
	if p, ok := paymentTokens[token]; ok {
		return p, true
	}
	return "", false
}

// NormalizePaymentMethod maps a raw token such as "visa" or "เงินสด" to a
// display value. Tokens outside the vocabulary are title-cased, so the result
// is not guaranteed to be a member of PaymentMethods.
func NormalizePaymentMethod(token string) PaymentMethod {
	if p, ok := ParsePaymentMethod(token); ok {
		return p
	}
	return PaymentMethod(titleCaser.String(strings.TrimSpace(token)))
}
