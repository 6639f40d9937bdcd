package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorrawut/poon-ai-service-sub001/internal/common"
	"github.com/vorrawut/poon-ai-service-sub001/internal/engine"
	"github.com/vorrawut/poon-ai-service-sub001/internal/llm"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(viper.New())
	require.NoError(t, err)

	want := engine.DefaultConfig()
	assert.Equal(t, want.Thresholds, s.Engine.Thresholds)
	assert.Equal(t, want.Merge, s.Engine.Merge)
	assert.Equal(t, want.AITimeout, s.Engine.AITimeout)
	assert.Equal(t, want.ParseCacheTTL, s.Engine.ParseCacheTTL)
	assert.Equal(t, want.OCRCacheTTL, s.Engine.OCRCacheTTL)
	assert.Equal(t, want.BatchWorkers, s.Engine.BatchWorkers)
	assert.Equal(t, want.Retry.MaxAttempts, s.Engine.Retry.MaxAttempts)
	assert.Equal(t, want.Retry.InitialDelay, s.Engine.Retry.InitialDelay)

	assert.Equal(t, "memory", s.Cache.Backend)
	assert.Equal(t, llm.ProviderOllama, s.LLM.Client.Provider)
	assert.True(t, s.LLM.Enabled)
	assert.True(t, s.OCR.Enabled)
	assert.False(t, s.OCR.Gemini.SkipPreprocess)
	assert.Equal(t, time.Local, s.Location)
	assert.NotContains(t, s.Database.Path, "~")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Asia/Bangkok
database:
  path: `+filepath.Join(dir, "poon.db")+`
cache:
  backend: Redis
  redis_url: redis://cache:6379/2
llm:
  provider: gemini
  api_key: secret
  timeout: 10s
  rate_limit: 15
thresholds:
  text: 0.65
batch:
  workers: 8
ocr:
  preprocess: false
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "Asia/Bangkok", s.Location.String())
	assert.Equal(t, filepath.Join(dir, "poon.db"), s.Database.Path)
	assert.Equal(t, "redis", s.Cache.Backend)
	assert.Equal(t, "redis://cache:6379/2", s.CacheConfig().RedisURL)
	assert.Equal(t, 10*time.Second, s.Engine.AITimeout)
	assert.Equal(t, 10*time.Second, s.LLM.Client.Timeout)
	assert.Equal(t, 15, s.LLM.Client.RateLimit)
	assert.InDelta(t, 0.65, s.Engine.Thresholds.Text, 1e-9)
	assert.InDelta(t, 0.7, s.Engine.Thresholds.NLPParse, 1e-9)
	assert.Equal(t, 8, s.Engine.BatchWorkers)
	assert.True(t, s.OCR.Gemini.SkipPreprocess)
	assert.Equal(t, "secret", s.OCR.Gemini.APIKey, "OCR reuses the Gemini LLM key")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"unknown cache backend", "cache.backend", "memcached", "cache.backend"},
		{"unknown provider", "llm.provider", "llamafile", "llm.provider"},
		{"threshold above one", "thresholds.receipt", 1.5, "thresholds.receipt"},
		{"negative boost", "merge.boost", -0.1, "merge.boost"},
		{"no workers", "batch.workers", 0, "batch.workers"},
		{"no attempts", "llm.max_retries", 0, "llm.max_retries"},
		{"zero timeout", "llm.timeout", "0s", "llm.timeout"},
		{"bad timezone", "timezone", "Mars/Olympus", "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("POON_TEST_DIR", "/srv/poon")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/data/poon.db", filepath.Join(home, "data/poon.db")},
		{"$POON_TEST_DIR/poon.db", "/srv/poon/poon.db"},
		{"/abs/path.db", "/abs/path.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
