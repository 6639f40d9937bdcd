package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	k1 := Key("Coffee 120 baht", "en")
	k2 := Key("Coffee 120 baht", "th")
	k3 := Key("Coffee 121 baht", "en")

	assert.True(t, strings.HasPrefix(k1, "nlp:"))
	assert.True(t, strings.HasSuffix(k1, ":en"))
	assert.Len(t, k1, len("nlp:")+64+len(":en"))
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, Key("Coffee 120 baht", "en"))

	ocr := OCRKey([]byte{0x89, 0x50, 0x4e, 0x47})
	assert.True(t, strings.HasPrefix(ocr, "ocr:"))
	assert.Len(t, ocr, len("ocr:")+64)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("basic operations", func(t *testing.T) {
		c := NewMemory()
		defer func() { _ = c.Close() }()

		_, found, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, c.Set(ctx, "k", []byte(`{"confidence":0.9}`), time.Minute))
		value, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"confidence":0.9}`, string(value))
		assert.Equal(t, 1, c.Len())
	})

	t.Run("stored value is a copy", func(t *testing.T) {
		c := newMemory(time.Now)
		value := []byte("abc")
		require.NoError(t, c.Set(ctx, "k", value, time.Minute))
		value[0] = 'x'

		got, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "abc", string(got))
	})

	t.Run("expiration", func(t *testing.T) {
		now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
		c := newMemory(func() time.Time { return now })

		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		_, found, _ := c.Get(ctx, "k")
		assert.True(t, found)

		now = now.Add(2 * time.Minute)
		_, found, _ = c.Get(ctx, "k")
		assert.False(t, found)
		assert.Equal(t, 1, c.Len())

		c.sweep()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := NewMemory()
		defer func() { _ = c.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := Key(strings.Repeat("a", i), "en")
				_ = c.Set(ctx, key, []byte("v"), time.Minute)
				_, _, _ = c.Get(ctx, key)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 20, c.Len())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c := NewMemory()
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		setup     func(mock redismock.ClientMock)
		name      string
		key       string
		wantValue string
		wantFound bool
		wantErr   bool
	}{
		{
			name: "hit",
			key:  "nlp:abc:en",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("poon:nlp:abc:en").SetVal(`{"confidence":0.8}`)
			},
			wantValue: `{"confidence":0.8}`,
			wantFound: true,
		},
		{
			name: "miss",
			key:  "nlp:def:en",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("poon:nlp:def:en").RedisNil()
			},
		},
		{
			name: "server error",
			key:  "nlp:ghi:en",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectGet("poon:nlp:ghi:en").SetErr(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setup(mock)

			c := NewRedis(client, "poon:")
			value, found, err := c.Get(ctx, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFound, found)
				assert.Equal(t, tt.wantValue, string(value))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisCacheSet(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "poon:")

	value := []byte(`{"confidence":0.8}`)
	mock.ExpectSet("poon:nlp:abc:en", value, 30*time.Minute).SetVal("OK")
	require.NoError(t, c.Set(ctx, "nlp:abc:en", value, 0))

	mock.ExpectSet("poon:ocr:abc", value, time.Hour).SetErr(errors.New("readonly"))
	assert.Error(t, c.Set(ctx, "ocr:abc", value, time.Hour))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	c := New(ctx, Config{Backend: BackendMemory})
	_, ok := c.(*Memory)
	assert.True(t, ok)
	_ = c.Close()

	c = New(ctx, Config{Backend: BackendRedis, RedisURL: "not a url"})
	_, ok = c.(*Memory)
	assert.True(t, ok)
	_ = c.Close()
}
