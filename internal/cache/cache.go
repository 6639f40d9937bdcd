// Package cache provides the result caches used by the extraction engine:
// an in-process memory cache and a Redis cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default lifetimes of cached results.
const (
	DefaultParseTTL = 30 * time.Minute
	DefaultOCRTTL   = time.Hour
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache stores serialized results under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key returns the cache key of a parse result for text in lang.
func Key(text, lang string) string {
	sum := sha256.Sum256([]byte(text))
	return "nlp:" + hex.EncodeToString(sum[:]) + ":" + lang
}

// OCRKey returns the cache key of the text recognized from image.
func OCRKey(image []byte) string {
	sum := sha256.Sum256(image)
	return "ocr:" + hex.EncodeToString(sum[:])
}

// Config selects and configures a cache backend.
type Config struct {
	Backend  string
	RedisURL string
	Prefix   string
}

// New creates the configured cache. A Redis backend that cannot be reached
// at startup falls back to the memory cache.
func New(ctx context.Context, cfg Config) Cache {
	if cfg.Backend != BackendRedis {
		return NewMemory()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("Invalid Redis URL, using memory cache", "error", err)
		return NewMemory()
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis unreachable, using memory cache", "error", err)
		_ = client.Close()
		return NewMemory()
	}

	slog.Info("Connected to Redis cache", "addr", opts.Addr)
	return NewRedis(client, cfg.Prefix)
}
