package pattern

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/vorrawut/poon-ai-service-sub001/internal/confidence"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
)

// Weights are the per-field confidences assigned by the extractor. They are
// tuning policy rather than derived values.
type Weights struct {
	AmountWithDecimal float64
	AmountInteger     float64
	CatalogMerchant   float64
	PatternMerchant   float64
	CatalogCategory   float64
	KeywordScale      float64
	RelativeDay       float64
	RelativePeriod    float64
	AbsoluteDate      float64
	PaymentMethod     float64
}

// DefaultWeights returns the standard extraction weights.
func DefaultWeights() Weights {
	return Weights{
		AmountWithDecimal: 0.9,
		AmountInteger:     0.8,
		CatalogMerchant:   0.95,
		PatternMerchant:   0.7,
		CatalogCategory:   0.9,
		KeywordScale:      2,
		RelativeDay:       0.9,
		RelativePeriod:    0.8,
		AbsoluteDate:      0.8,
		PaymentMethod:     0.8,
	}
}

// Config holds extractor settings.
type Config struct {
	Catalog  *Catalog
	Keywords *KeywordIndex
	Now      func() time.Time
	Logger   *slog.Logger
	Weights  Weights
}

// DefaultConfig returns a config using the built-in catalog and keyword index
// and the wall clock.
func DefaultConfig() Config {
	return Config{
		Catalog:  DefaultCatalog,
		Keywords: DefaultKeywordIndex,
		Now:      time.Now,
		Weights:  DefaultWeights(),
	}
}

// Extractor runs the local pattern pass over raw text. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	catalog  *Catalog
	keywords *KeywordIndex
	now      func() time.Time
	logger   *slog.Logger
	weights  Weights
}

// NewExtractor creates an extractor with the default configuration.
func NewExtractor() *Extractor {
	return NewExtractorWithConfig(DefaultConfig())
}

// NewExtractorWithConfig creates an extractor, filling unset fields from
// DefaultConfig.
func NewExtractorWithConfig(cfg Config) *Extractor {
	defaults := DefaultConfig()
	if cfg.Catalog == nil {
		cfg.Catalog = defaults.Catalog
	}
	if cfg.Keywords == nil {
		cfg.Keywords = defaults.Keywords
	}
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = defaults.Weights
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		catalog:  cfg.Catalog,
		keywords: cfg.Keywords,
		now:      cfg.Now,
		logger:   cfg.Logger,
		weights:  cfg.Weights,
	}
}

// Extract pulls amount, merchant, category, date and payment method out of
// text. A field is left nil when nothing matched; no match is not an error.
// The overall confidence is the mean of the matched fields' confidences.
func (e *Extractor) Extract(text, lang string) model.ExtractionResult {
	lang = ResolveLanguage(lang, text)

	var (
		result  model.ExtractionResult
		factors []float64
	)

	if amt, ok := findAmount(text); ok {
		result.Amount = model.Ptr(amt.value)
		if amt.hasDecimal {
			factors = append(factors, e.weights.AmountWithDecimal)
		} else {
			factors = append(factors, e.weights.AmountInteger)
		}
	}

	fromCatalog := false
	if rec, ok := e.catalog.Lookup(text); ok {
		result.Merchant = model.Ptr(rec.Name)
		factors = append(factors, e.weights.CatalogMerchant)
		fromCatalog = true
	} else if name, ok := findMerchantByPattern(text); ok {
		result.Merchant = model.Ptr(name)
		factors = append(factors, e.weights.PatternMerchant)
	}

	if category, subcategory, score, ok := e.predictCategory(text, result.Merchant); ok {
		result.Category = model.Ptr(category)
		if subcategory != "" {
			result.Subcategory = model.Ptr(subcategory)
		}
		factors = append(factors, score)
	}

	if d, ok := findDate(text, lang, e.now()); ok {
		result.TransactionDate = model.Ptr(d.date)
		switch {
		case d.relative && d.dayLevel:
			factors = append(factors, e.weights.RelativeDay)
		case d.relative:
			factors = append(factors, e.weights.RelativePeriod)
		default:
			factors = append(factors, e.weights.AbsoluteDate)
		}
	}

	if method, ok := findPaymentMethod(text); ok {
		result.PaymentMethod = model.Ptr(method)
		factors = append(factors, e.weights.PaymentMethod)
	}

	result.Confidence = confidence.Aggregate(factors)
	result.ExtractionDetails = map[string]any{
		model.DetailPatternsMatched:    len(factors),
		model.DetailTextLength:         utf8.RuneCountInString(text),
		model.DetailLanguage:           lang,
		model.DetailMerchantNormalized: fromCatalog,
		model.DetailExtractor:          "pattern",
	}

	e.logger.Debug("Pattern extraction completed",
		"confidence", result.Confidence,
		"patterns_matched", len(factors),
		"language", lang)

	return result
}

// PredictCategory resolves a category for text and an optional merchant name.
// A catalog merchant decides the category outright; otherwise the keyword
// index is consulted.
func (e *Extractor) PredictCategory(text string, merchant *string) (model.Category, string, float64, bool) {
	return e.predictCategory(text, merchant)
}

func (e *Extractor) predictCategory(text string, merchant *string) (model.Category, string, float64, bool) {
	if merchant != nil {
		if rec, ok := e.catalog.Lookup(*merchant); ok {
			return rec.Category, rec.Subcategory, e.weights.CatalogCategory, true
		}
	}

	match, ok := e.keywords.Best(text)
	if !ok {
		return "", "", 0, false
	}
	return match.Category, "", float64(confidence.Clamp(match.Score * e.weights.KeywordScale)), true
}
