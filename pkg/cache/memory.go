// Package cache provides Cache capability implementations for apimanager:
// an in-process map here, with SQLite and Redis backends in subpackages.
package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
}

// Memory is a process-local cache. Entries live until overwritten, or until
// MaxAge passes when one is set. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// MaxAge treats entries older than this as misses. Zero disables expiry.
	MaxAge time.Duration

	now func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.MaxAge > 0 && m.now().Sub(e.createdAt) > m.MaxAge {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, createdAt: m.now()}
	return nil
}

// Len returns the number of stored entries, including expired ones that
// have not been overwritten.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
