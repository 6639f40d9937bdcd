// Package engine runs the extraction pipeline: local pattern extraction, the
// fallback decision, AI enhancement, merging and entry assembly.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cache"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/confidence"
	"github.com/vorrawut/poon-ai-service-sub001/internal/metrics"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// ErrAIUnavailable is returned by the AI-only path when no AI collaborator
// can take the request.
var ErrAIUnavailable = common.ErrAIUnavailable

// Metadata keys recorded on receipt entries.
const (
	MetadataOCRConfidence    = "ocr_confidence"
	MetadataOCRModel         = "ocr_model"
	MetadataOCRNLPConfidence = "ocr_nlp_confidence"
)

// Config holds the engine's tunable policy.
type Config struct {
	Retry                  service.RetryOptions
	Thresholds             Thresholds
	Merge                  MergePolicy
	AITimeout              time.Duration
	ParseCacheTTL          time.Duration
	OCRCacheTTL            time.Duration
	OCRConfidenceThreshold float64
	BatchWorkers           int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Retry:                  common.DefaultAIRetryOptions(),
		Thresholds:             DefaultThresholds(),
		Merge:                  DefaultMergePolicy(),
		AITimeout:              30 * time.Second,
		ParseCacheTTL:          cache.DefaultParseTTL,
		OCRCacheTTL:            cache.DefaultOCRTTL,
		OCRConfidenceThreshold: 0.7,
		BatchWorkers:           4,
	}
}

// Deps are the engine's collaborators. Only Extractor is required; every
// other dependency is optional and disables its feature when nil.
type Deps struct {
	Extractor *pattern.Extractor
	Enhancer  Enhancer
	OCR       TextRecognizer
	Cache     Cache
	Storage   service.Storage
	Metrics   *metrics.Pipeline
	Logger    *slog.Logger
	Now       func() time.Time
}

// Engine orchestrates extraction requests.
type Engine struct {
	extractor *pattern.Extractor
	enhancer  Enhancer
	ocr       TextRecognizer
	cache     Cache
	storage   service.Storage
	metrics   *metrics.Pipeline
	logger    *slog.Logger
	now       func() time.Time
	merger    *Merger
	assembler *Assembler
	config    Config
}

// New creates an engine with the default configuration.
func New(deps Deps) *Engine {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates an engine with a custom configuration. Zero values in
// config are replaced by their defaults.
func NewWithConfig(deps Deps, config Config) *Engine {
	defaults := DefaultConfig()
	if config.Thresholds == (Thresholds{}) {
		config.Thresholds = defaults.Thresholds
	}
	if config.Merge == (MergePolicy{}) {
		config.Merge = defaults.Merge
	}
	if config.Retry == (service.RetryOptions{}) {
		config.Retry = defaults.Retry
	}
	if config.AITimeout <= 0 {
		config.AITimeout = defaults.AITimeout
	}
	if config.ParseCacheTTL <= 0 {
		config.ParseCacheTTL = defaults.ParseCacheTTL
	}
	if config.OCRCacheTTL <= 0 {
		config.OCRCacheTTL = defaults.OCRCacheTTL
	}
	if config.OCRConfidenceThreshold <= 0 {
		config.OCRConfidenceThreshold = defaults.OCRConfidenceThreshold
	}
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = defaults.BatchWorkers
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Extractor == nil {
		deps.Extractor = pattern.NewExtractorWithConfig(pattern.Config{Now: deps.Now, Logger: deps.Logger})
	}

	return &Engine{
		extractor: deps.Extractor,
		enhancer:  deps.Enhancer,
		ocr:       deps.OCR,
		cache:     deps.Cache,
		storage:   deps.Storage,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
		merger:    NewMerger(config.Merge),
		assembler: NewAssembler(deps.Now, deps.Logger),
		config:    config,
	}
}

// TextRequest is free text to parse.
type TextRequest struct {
	Text     string
	Language string
	// DisableFallback keeps the local result even when its confidence is
	// below the threshold.
	DisableFallback bool
	Save            bool
}

// ReceiptRequest is a receipt image to recognize and parse.
type ReceiptRequest struct {
	Metadata        map[string]any
	Language        string
	Image           []byte
	DisableFallback bool
	Save            bool
}

// BatchRequest is a structured import. Columns fixes the order in which row
// values are rendered into the entry's raw text.
type BatchRequest struct {
	Progress      func(done int)
	Rows          []map[string]string
	Columns       []string
	EnhanceWithAI bool
	Save          bool
}

// ParseText extracts fields from free text without assembling an entry.
// Results are cached by text and language.
func (e *Engine) ParseText(ctx context.Context, req TextRequest) (model.ExtractionResult, error) {
	text := pattern.CleanText(req.Text)
	if text == "" {
		return model.ExtractionResult{}, fmt.Errorf("%w: text is empty", common.ErrInvalidInput)
	}
	lang := pattern.ResolveLanguage(req.Language, text)
	key := cache.Key(text, lang)

	if cached, ok := e.cachedResult(ctx, key); ok {
		return cached.WithDetail(model.DetailCacheHit, true), nil
	}

	result := e.analyze(ctx, text, lang, e.config.Thresholds.NLPParse, !req.DisableFallback)
	e.storeResult(ctx, key, result)
	e.metrics.ObserveExtraction(processingMethod(model.SourceText, result), result.Confidence)

	return result, nil
}

// ProcessText turns free text into a spending entry.
func (e *Engine) ProcessText(ctx context.Context, req TextRequest) (model.SpendingEntry, error) {
	started := time.Now()
	text := pattern.CleanText(req.Text)
	if text == "" {
		return model.SpendingEntry{}, fmt.Errorf("%w: text is empty", common.ErrInvalidInput)
	}
	lang := pattern.ResolveLanguage(req.Language, text)

	result := e.analyze(ctx, text, lang, e.config.Thresholds.Text, !req.DisableFallback)
	entry := e.assembler.Assemble(result, text, EntryContext{Source: model.SourceText})
	e.metrics.ObserveExtraction(entry.ProcessingMethod, entry.Confidence)

	if req.Save {
		if err := e.persist(ctx, &entry, "text", started); err != nil {
			return model.SpendingEntry{}, err
		}
	}
	return entry, nil
}

// ProcessReceipt recognizes the text on a receipt image and turns it into a
// spending entry.
func (e *Engine) ProcessReceipt(ctx context.Context, req ReceiptRequest) (model.SpendingEntry, error) {
	started := time.Now()
	if len(req.Image) == 0 {
		return model.SpendingEntry{}, fmt.Errorf("%w: image is empty", common.ErrInvalidInput)
	}

	ocr, err := e.recognize(ctx, req.Image)
	if err != nil {
		return model.SpendingEntry{}, err
	}

	text := pattern.CleanText(ocr.Text)
	if text == "" {
		return model.SpendingEntry{}, fmt.Errorf("%w: no text recognized", common.ErrOCRFailed)
	}
	lang := req.Language
	if lang == "" || lang == pattern.LanguageAuto {
		lang = ocr.Language
	}
	lang = pattern.ResolveLanguage(lang, text)

	result := e.analyze(ctx, text, lang, e.config.Thresholds.Receipt, !req.DisableFallback)

	metadata := make(map[string]any, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[MetadataOCRConfidence] = ocr.Confidence
	metadata[MetadataOCRModel] = ocr.Model
	metadata[MetadataOCRNLPConfidence] = confidence.Combine(
		confidence.Clamp(ocr.Confidence),
		confidence.Clamp(result.Confidence),
	).Float()

	entry := e.assembler.Assemble(result, text, EntryContext{
		Source:   model.SourceReceipt,
		Metadata: metadata,
	})
	e.metrics.ObserveExtraction(entry.ProcessingMethod, entry.Confidence)

	if req.Save {
		if err := e.persist(ctx, &entry, "receipt", started); err != nil {
			return model.SpendingEntry{}, err
		}
	}
	return entry, nil
}

// ParseWithAI parses text with the AI collaborator alone. Unlike the other
// entry points it fails when no AI is available.
func (e *Engine) ParseWithAI(ctx context.Context, req TextRequest) (model.ExtractionResult, error) {
	text := pattern.CleanText(req.Text)
	if text == "" {
		return model.ExtractionResult{}, fmt.Errorf("%w: text is empty", common.ErrInvalidInput)
	}
	if e.enhancer == nil || !e.enhancer.Available(ctx) {
		return model.ExtractionResult{}, ErrAIUnavailable
	}
	lang := pattern.ResolveLanguage(req.Language, text)

	ai, err := e.callAI(ctx, e.enhanceRequest(nil, text, lang, service.ModeParse))
	if err != nil {
		e.metrics.ObserveAIFailure()
		return model.ExtractionResult{}, fmt.Errorf("AI parse failed: %w", err)
	}
	if !Usable(ai) {
		e.metrics.ObserveAIFailure()
		return model.ExtractionResult{}, common.ErrNoUsableData
	}

	result := ai.Clone()
	result.Confidence = confidence.Clamp(result.Confidence).Float()
	result = result.
		WithDetail(model.DetailExtractor, "ai").
		WithDetail(model.DetailAIModel, e.enhancer.Model()).
		WithDetail(model.DetailLanguage, lang)

	e.metrics.ObserveExtraction(model.MethodAIDirect, result.Confidence)
	return result, nil
}

// SuggestCategories ranks up to three categories for a merchant.
func (e *Engine) SuggestCategories(merchant, description string) []pattern.Suggestion {
	return e.extractor.Suggest(merchant, description)
}

// NormalizeMerchant returns the canonical display name of a merchant.
func (e *Engine) NormalizeMerchant(name string) string {
	return e.extractor.NormalizeMerchant(name)
}

// analyze runs the local pass and, when the decision calls for it, the AI
// enhancement. It never fails: every AI problem degrades to the local result.
func (e *Engine) analyze(ctx context.Context, text, lang string, threshold float64, allowFallback bool) model.ExtractionResult {
	local := e.extractor.Extract(text, lang)

	aiAvailable := false
	if allowFallback && local.Confidence < threshold {
		aiAvailable = e.enhancer != nil && e.enhancer.Available(ctx)
	}

	decision := Decide(local.Confidence, threshold, aiAvailable, allowFallback)
	if decision.AIUnavailable {
		e.logger.Warn("AI enhancement indicated but unavailable, keeping local result",
			"confidence", local.Confidence,
			"threshold", threshold)
		e.metrics.ObserveEscalation(metrics.OutcomeAIUnavailable)
		return local
	}
	if decision.Outcome == LocalOnly {
		e.metrics.ObserveEscalation(metrics.OutcomeLocalOnly)
		return local
	}

	return e.enhance(ctx, local, text, lang, service.ModeEnhance)
}

// enhance asks the AI collaborator to improve local and merges the answer.
// On failure local is returned with the error recorded in its details.
func (e *Engine) enhance(ctx context.Context, local model.ExtractionResult, text, lang string, mode service.EnhanceMode) model.ExtractionResult {
	ai, err := e.callAI(ctx, e.enhanceRequest(&local, text, lang, mode))
	if err == nil && !Usable(ai) {
		err = common.ErrNoUsableData
	}
	if err != nil {
		e.logger.Warn("AI enhancement failed, keeping local result",
			"error", err,
			"confidence", local.Confidence,
			"cancelled", errors.Is(err, context.Canceled))
		e.metrics.ObserveAIFailure()
		e.metrics.ObserveEscalation(metrics.OutcomeAIFailed)
		return local.WithDetail(model.DetailAIError, err.Error())
	}

	merged := e.merger.Merge(local, ai, e.enhancer.Model())
	e.logger.Debug("AI enhancement merged",
		"local_confidence", local.Confidence,
		"merged_confidence", merged.Confidence,
		"model", e.enhancer.Model())
	e.metrics.ObserveEscalation(metrics.OutcomeAIEnhanced)
	return merged
}

// callAI runs one enhancement request under the retry policy with a timeout
// per attempt.
func (e *Engine) callAI(ctx context.Context, req service.EnhanceRequest) (model.ExtractionResult, error) {
	started := time.Now()
	defer func() { e.metrics.ObserveAILatency(time.Since(started)) }()

	var result model.ExtractionResult
	err := common.WithRetry(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.config.AITimeout)
		defer cancel()

		res, err := e.enhancer.Enhance(attemptCtx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	}, e.config.Retry)
	return result, err
}

func (e *Engine) enhanceRequest(local *model.ExtractionResult, text, lang string, mode service.EnhanceMode) service.EnhanceRequest {
	req := service.EnhanceRequest{
		Local:          local,
		RawText:        text,
		Language:       lang,
		Mode:           mode,
		Categories:     model.Categories,
		PaymentMethods: model.PaymentMethods,
	}
	if local != nil {
		req.WeakFields = weakFields(*local)
		req.MissingFields = missingFields(*local)
	}
	return req
}

var requiredFields = []string{"amount", "merchant", "category", "date", "payment_method"}

func missingFields(r model.ExtractionResult) []string {
	present := make(map[string]bool)
	for _, f := range r.PopulatedFields() {
		present[f] = true
	}
	var missing []string
	for _, f := range requiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// weakFields lists the populated fields that came from heuristics rather than
// the merchant catalog.
func weakFields(r model.ExtractionResult) []string {
	normalized := false
	if v, ok := r.Detail(model.DetailMerchantNormalized); ok {
		normalized, _ = v.(bool)
	}
	if normalized {
		return nil
	}
	var weak []string
	if r.Merchant != nil {
		weak = append(weak, "merchant")
	}
	if r.Category != nil {
		weak = append(weak, "category")
	}
	return weak
}

func (e *Engine) recognize(ctx context.Context, image []byte) (service.OCRResult, error) {
	if e.ocr == nil {
		return service.OCRResult{}, fmt.Errorf("%w: no text recognizer configured", common.ErrOCRFailed)
	}

	key := cache.OCRKey(image)
	if e.cache != nil {
		data, found, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			e.logger.Warn("OCR cache lookup failed", "error", err)
		case found:
			var cached service.OCRResult
			if err := json.Unmarshal(data, &cached); err == nil {
				e.metrics.ObserveCache(true)
				return cached, nil
			}
		}
		e.metrics.ObserveCache(false)
	}

	result, err := e.ocr.ExtractText(ctx, image)
	if err != nil {
		return service.OCRResult{}, fmt.Errorf("%w: %w", common.ErrOCRFailed, err)
	}

	if e.cache != nil && result.Confidence >= e.config.OCRConfidenceThreshold {
		if data, err := json.Marshal(result); err == nil {
			if err := e.cache.Set(ctx, key, data, e.config.OCRCacheTTL); err != nil {
				e.logger.Warn("Failed to cache OCR result", "error", err)
			}
		}
	}
	return result, nil
}

func (e *Engine) cachedResult(ctx context.Context, key string) (model.ExtractionResult, bool) {
	if e.cache == nil {
		return model.ExtractionResult{}, false
	}
	data, found, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("Cache lookup failed", "key", key, "error", err)
	}
	if err != nil || !found {
		e.metrics.ObserveCache(false)
		return model.ExtractionResult{}, false
	}

	var result model.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		e.logger.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		e.metrics.ObserveCache(false)
		return model.ExtractionResult{}, false
	}
	e.metrics.ObserveCache(true)
	return result, true
}

func (e *Engine) storeResult(ctx context.Context, key string, result model.ExtractionResult) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		e.logger.Warn("Failed to encode result for cache", "error", err)
		return
	}
	if err := e.cache.Set(ctx, key, data, e.config.ParseCacheTTL); err != nil {
		e.logger.Warn("Failed to cache result", "key", key, "error", err)
	}
}

func (e *Engine) persist(ctx context.Context, entry *model.SpendingEntry, stage string, started time.Time) error {
	if e.storage == nil {
		return fmt.Errorf("%w: no storage configured", common.ErrMissingConfig)
	}
	if err := e.storage.SaveEntry(ctx, entry); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			e.logger.Warn("Skipping duplicate entry", "entry_id", entry.ID, "merchant", entry.Merchant)
			return nil
		}
		return fmt.Errorf("failed to save entry: %w", err)
	}

	log := &service.ProcessingLog{
		EntryID:    entry.ID,
		Stage:      stage,
		Status:     "completed",
		Confidence: entry.Confidence,
		Duration:   time.Since(started),
	}
	if v, ok := entry.Metadata[metadataExtraction].(map[string]any); ok {
		if msg, ok := v[model.DetailAIError].(string); ok {
			log.Status = "degraded"
			log.ErrorMessage = msg
		}
	}
	if err := e.storage.LogProcessing(ctx, log); err != nil {
		e.logger.Warn("Failed to record processing log", "entry_id", entry.ID, "error", err)
	}
	return nil
}
