package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cache"
	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/engine"
	"github.com/vorrawut/poon-ai-service-sub001/internal/llm"
	"github.com/vorrawut/poon-ai-service-sub001/internal/ocr"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// DefaultDatabasePath is where entries are stored unless database.path is set.
const DefaultDatabasePath = "~/.local/share/poon/poon.db"

// Settings collects every configurable value with its type.
type Settings struct {
	Location *time.Location
	Database DatabaseSettings
	Cache    CacheSettings
	LLM      LLMSettings
	OCR      OCRSettings
	Engine   engine.Config
}

// DatabaseSettings configures the SQLite entry store.
type DatabaseSettings struct {
	Path string
}

// CacheSettings selects the result cache backend.
type CacheSettings struct {
	Backend  string
	RedisURL string
	Prefix   string
}

// LLMSettings configures the AI collaborator.
type LLMSettings struct {
	Client  llm.Config
	Enabled bool
}

// OCRSettings configures receipt recognition.
type OCRSettings struct {
	Gemini  ocr.GeminiConfig
	Enabled bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("timezone", "Local")

	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.prefix", "poon:")
	v.SetDefault("cache.parse_ttl", defaults.ParseCacheTTL)
	v.SetDefault("cache.ocr_ttl", defaults.OCRCacheTTL)

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.provider", llm.ProviderOllama)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", defaults.AITimeout)
	v.SetDefault("llm.max_retries", defaults.Retry.MaxAttempts)
	v.SetDefault("llm.retry_delay", defaults.Retry.InitialDelay)
	v.SetDefault("llm.rate_limit", llm.DefaultRateLimit)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)

	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.model", "")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.preprocess", true)
	v.SetDefault("ocr.confidence_threshold", defaults.OCRConfidenceThreshold)

	v.SetDefault("thresholds.nlp_parse", defaults.Thresholds.NLPParse)
	v.SetDefault("thresholds.text", defaults.Thresholds.Text)
	v.SetDefault("thresholds.receipt", defaults.Thresholds.Receipt)
	v.SetDefault("thresholds.batch_enhance", defaults.Thresholds.BatchEnhance)

	v.SetDefault("merge.floor", defaults.Merge.Floor)
	v.SetDefault("merge.boost", defaults.Merge.Boost)

	v.SetDefault("batch.workers", defaults.BatchWorkers)
}

// Load reads typed settings from v, applying defaults for unset keys, and
// validates them. Every failure wraps common.ErrInvalidConfig.
func Load(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)

	loc, err := loadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, err
	}

	defaults := engine.DefaultConfig()
	s := &Settings{
		Location: loc,
		Database: DatabaseSettings{Path: ExpandPath(v.GetString("database.path"))},
		Cache: CacheSettings{
			Backend:  strings.ToLower(v.GetString("cache.backend")),
			RedisURL: v.GetString("cache.redis_url"),
			Prefix:   v.GetString("cache.prefix"),
		},
		LLM: LLMSettings{
			Enabled: v.GetBool("llm.enabled"),
			Client: llm.Config{
				Provider:    strings.ToLower(v.GetString("llm.provider")),
				APIKey:      v.GetString("llm.api_key"),
				BaseURL:     v.GetString("llm.base_url"),
				Model:       v.GetString("llm.model"),
				Timeout:     v.GetDuration("llm.timeout"),
				RateLimit:   v.GetInt("llm.rate_limit"),
				Temperature: v.GetFloat64("llm.temperature"),
				MaxTokens:   v.GetInt("llm.max_tokens"),
			},
		},
		OCR: OCRSettings{
			Enabled: v.GetBool("ocr.enabled"),
			Gemini: ocr.GeminiConfig{
				APIKey:         v.GetString("ocr.api_key"),
				Model:          v.GetString("ocr.model"),
				SkipPreprocess: !v.GetBool("ocr.preprocess"),
			},
		},
		Engine: engine.Config{
			Retry: service.RetryOptions{
				MaxAttempts:  v.GetInt("llm.max_retries"),
				InitialDelay: v.GetDuration("llm.retry_delay"),
				MaxDelay:     defaults.Retry.MaxDelay,
				Multiplier:   defaults.Retry.Multiplier,
			},
			Thresholds: engine.Thresholds{
				NLPParse:     v.GetFloat64("thresholds.nlp_parse"),
				Text:         v.GetFloat64("thresholds.text"),
				Receipt:      v.GetFloat64("thresholds.receipt"),
				BatchEnhance: v.GetFloat64("thresholds.batch_enhance"),
			},
			Merge: engine.MergePolicy{
				Floor: v.GetFloat64("merge.floor"),
				Boost: v.GetFloat64("merge.boost"),
			},
			AITimeout:              v.GetDuration("llm.timeout"),
			ParseCacheTTL:          v.GetDuration("cache.parse_ttl"),
			OCRCacheTTL:            v.GetDuration("cache.ocr_ttl"),
			OCRConfidenceThreshold: v.GetFloat64("ocr.confidence_threshold"),
			BatchWorkers:           v.GetInt("batch.workers"),
		},
	}

	// The OCR key falls back to the Gemini LLM key.
	if s.OCR.Gemini.APIKey == "" && s.LLM.Client.Provider == llm.ProviderGemini {
		s.OCR.Gemini.APIKey = s.LLM.Client.APIKey
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges and enumerations.
func (s *Settings) Validate() error {
	switch s.Cache.Backend {
	case cache.BackendMemory, cache.BackendRedis:
	default:
		return fmt.Errorf("%w: cache.backend must be %q or %q, got %q",
			common.ErrInvalidConfig, cache.BackendMemory, cache.BackendRedis, s.Cache.Backend)
	}

	switch s.LLM.Client.Provider {
	case llm.ProviderOllama, llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini:
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, s.LLM.Client.Provider)
	}

	unit := map[string]float64{
		"thresholds.nlp_parse":     s.Engine.Thresholds.NLPParse,
		"thresholds.text":          s.Engine.Thresholds.Text,
		"thresholds.receipt":       s.Engine.Thresholds.Receipt,
		"thresholds.batch_enhance": s.Engine.Thresholds.BatchEnhance,
		"merge.floor":              s.Engine.Merge.Floor,
		"merge.boost":              s.Engine.Merge.Boost,
		"ocr.confidence_threshold": s.Engine.OCRConfidenceThreshold,
	}
	for key, value := range unit {
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %v", common.ErrInvalidConfig, key, value)
		}
	}

	if s.Engine.BatchWorkers < 1 {
		return fmt.Errorf("%w: batch.workers must be at least 1", common.ErrInvalidConfig)
	}
	if s.Engine.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm.max_retries must be at least 1", common.ErrInvalidConfig)
	}
	if s.Engine.AITimeout <= 0 {
		return fmt.Errorf("%w: llm.timeout must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// CacheConfig returns the cache construction settings.
func (s *Settings) CacheConfig() cache.Config {
	return cache.Config{
		Backend:  s.Cache.Backend,
		RedisURL: s.Cache.RedisURL,
		Prefix:   s.Cache.Prefix,
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, name, err)
	}
	return loc, nil
}
