package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

// Health probe settings. A probe result is reused for healthTTL so the
// escalation decision does not cost a round trip per request.
const (
	healthTimeout = 5 * time.Second
	healthTTL     = 30 * time.Second
)

// Enhancer turns a provider Client into the engine's AI collaborator. It makes
// one attempt per call; retries and per-attempt timeouts are the caller's.
type Enhancer struct {
	client    Client
	prompts   *PromptBuilder
	limiter   *rateLimiter
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
	checkedAt time.Time
	healthy   bool
	mu        sync.Mutex
}

// NewEnhancer wraps client with prompt rendering, rate limiting and response
// coercion. Dates without a zone in model output are read in loc.
func NewEnhancer(client Client, rateLimit int, loc *time.Location, logger *slog.Logger) (*Enhancer, error) {
	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Enhancer{
		client:  client,
		prompts: prompts,
		limiter: newRateLimiter(rateLimit),
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}, nil
}

// Enhance asks the model to correct (or, in parse mode, produce) an
// extraction. Malformed output is a permanent failure for this request.
func (e *Enhancer) Enhance(ctx context.Context, req service.EnhanceRequest) (model.ExtractionResult, error) {
	if err := e.limiter.wait(ctx); err != nil {
		return model.ExtractionResult{}, err
	}

	prompt, err := e.prompts.Build(req)
	if err != nil {
		return model.ExtractionResult{}, &common.RetryableError{Err: err, Retryable: false}
	}

	start := e.now()
	content, err := e.client.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	e.logger.Debug("model responded",
		"model", e.client.Model(),
		"mode", req.Mode,
		"duration", e.now().Sub(start),
		"response_length", len(content))

	result, err := ParseExtraction(content, e.loc)
	if err != nil {
		return model.ExtractionResult{}, &common.RetryableError{
			Err:       fmt.Errorf("unusable model response: %w", err),
			Retryable: false,
		}
	}
	return result, nil
}

// Available reports whether the provider answered its last health probe.
func (e *Enhancer) Available(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.checkedAt.IsZero() && e.now().Sub(e.checkedAt) < healthTTL {
		return e.healthy
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	err := e.client.Health(probeCtx)
	e.healthy = err == nil
	e.checkedAt = e.now()
	if err != nil {
		e.logger.Warn("AI provider unavailable", "model", e.client.Model(), "error", err)
	}
	return e.healthy
}

// Model returns the provider's model name.
func (e *Enhancer) Model() string {
	return e.client.Model()
}

// Close releases the provider client if it holds resources.
func (e *Enhancer) Close() error {
	if c, ok := e.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
