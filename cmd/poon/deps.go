package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/vorrawut/poon-ai-service-sub001/internal/cache"
	"github.com/vorrawut/poon-ai-service-sub001/internal/config"
	"github.com/vorrawut/poon-ai-service-sub001/internal/engine"
	"github.com/vorrawut/poon-ai-service-sub001/internal/llm"
	"github.com/vorrawut/poon-ai-service-sub001/internal/metrics"
	"github.com/vorrawut/poon-ai-service-sub001/internal/ocr"
	"github.com/vorrawut/poon-ai-service-sub001/internal/pattern"
	"github.com/vorrawut/poon-ai-service-sub001/internal/storage"
)

// envKeyReplacer maps nested keys such as llm.api_key to POON_LLM_API_KEY.
var envKeyReplacer = strings.NewReplacer(".", "_")

// features selects which optional collaborators a command needs.
type features struct {
	storage bool
	ai      bool
	ocr     bool
}

// app bundles the engine with the resources that must be closed on exit.
type app struct {
	settings *config.Settings
	engine   *engine.Engine
	store    *storage.SQLiteStorage
	registry *prometheus.Registry
	closers  []io.Closer
}

// newApp loads settings and wires the engine. Optional collaborators that
// fail to start are logged and left out, except storage, which is required
// when requested.
func newApp(ctx context.Context, want features) (*app, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	loc := settings.Location
	now := func() time.Time { return time.Now().In(loc) }

	a := &app{
		settings: settings,
		registry: prometheus.NewRegistry(),
	}

	deps := engine.Deps{
		Extractor: pattern.NewExtractorWithConfig(pattern.Config{Now: now, Logger: logger}),
		Metrics:   metrics.New(a.registry),
		Logger:    logger,
		Now:       now,
	}

	c := cache.New(ctx, settings.CacheConfig())
	a.closers = append(a.closers, c)
	deps.Cache = c

	if want.storage {
		store, err := initStorage(ctx, settings.Database.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, store)
		deps.Storage = store
	}

	if want.ai && settings.LLM.Enabled {
		enhancer, err := newEnhancer(settings)
		if err != nil {
			logger.Warn("AI enhancement disabled", "error", err)
		} else {
			a.closers = append(a.closers, enhancer)
			deps.Enhancer = enhancer
		}
	}

	if want.ocr && settings.OCR.Enabled {
		recognizer, err := ocr.NewGemini(ctx, settings.OCR.Gemini, logger)
		if err != nil {
			logger.Warn("Receipt recognition disabled", "error", err)
		} else {
			a.closers = append(a.closers, recognizer)
			deps.OCR = recognizer
		}
	}

	a.engine = engine.NewWithConfig(deps, settings.Engine)
	return a, nil
}

func newEnhancer(settings *config.Settings) (*llm.Enhancer, error) {
	client, err := llm.NewClient(settings.LLM.Client)
	if err != nil {
		return nil, err
	}
	return llm.NewEnhancer(client, settings.LLM.Client.RateLimit, settings.Location, slog.Default())
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, path string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close writes the metrics textfile when one is configured and releases
// resources in reverse order of acquisition.
func (a *app) Close() {
	if path := viper.GetString("metrics.textfile"); path != "" {
		if err := prometheus.WriteToTextfile(config.ExpandPath(path), a.registry); err != nil {
			slog.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}
