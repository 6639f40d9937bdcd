package cache

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

type memoryEntry struct {
	expiry time.Time
	value  []byte
}

// Memory is a thread-safe in-process cache. Expired entries are skipped on
// read and swept periodically.
type Memory struct {
	entries map[string]memoryEntry
	stopCh  chan struct{}
	now     func() time.Time
	mu      sync.RWMutex
	once    sync.Once
}

// NewMemory creates a memory cache and starts its sweeper.
func NewMemory() *Memory {
	m := newMemory(time.Now)
	go m.cleanup()
	return m
}

func newMemory(now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
		now:     now,
	}
}

// Get returns the value stored under key if it has not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.entries[key]
	if !exists || m.now().After(entry.expiry) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a copy of value under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultParseTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:  stored,
		expiry: m.now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.entries {
		if now.After(entry.expiry) {
			delete(m.entries, key)
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}
