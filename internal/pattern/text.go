package pattern

import (
	"regexp"
	"strings"
	"unicode"
)

// Language codes understood by the extractor.
const (
	LanguageThai    = "th"
	LanguageEnglish = "en"
	LanguageAuto    = "auto"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	controlRe    = regexp.MustCompile(`[\x00-\x08\x0E-\x1F\x7F-\x9F]`)
)

// CleanText drops non-whitespace control characters, collapses runs of
// whitespace and trims the ends.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = controlRe.ReplaceAllString(text, "")
	return collapseSpaces(text)
}

// DetectLanguage returns "th" when Thai letters outnumber Latin letters and
// "en" otherwise, including for empty text.
func DetectLanguage(text string) string {
	var thai, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Thai, r):
			thai++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	if thai > latin {
		return LanguageThai
	}
	return LanguageEnglish
}

// ResolveLanguage maps "auto", empty and unknown codes to a detected language.
func ResolveLanguage(lang, text string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LanguageThai:
		return LanguageThai
	case LanguageEnglish:
		return LanguageEnglish
	default:
		return DetectLanguage(text)
	}
}

// collapseSpaces replaces whitespace runs with a single space.
func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
