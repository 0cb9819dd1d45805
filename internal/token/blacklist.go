package token

import (
	"context"
	"sync"
	"time"
)

// Blacklist records invalidated tokens by their Hash until the given expiry.
// Implementations are safe for concurrent use.
type Blacklist interface {
	Add(ctx context.Context, key string, expiresAt time.Time) error
	Contains(ctx context.Context, key string) (bool, error)
}

// Collector is implemented by blacklists that need periodic removal of expired entries.
type Collector interface {
	Purge(ctx context.Context) (int64, error)
}

// MemoryBlacklist keeps entries in process memory. Entries are lost on restart.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryBlacklist creates an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

// Add implements Blacklist.
func (m *MemoryBlacklist) Add(_ context.Context, key string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.entries[key]; !ok || expiresAt.After(cur) {
		m.entries[key] = expiresAt
	}

	return nil
}

// Contains implements Blacklist.
func (m *MemoryBlacklist) Contains(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exp, ok := m.entries[key]

	return ok && m.now().Before(exp), nil
}

// Purge implements Collector.
func (m *MemoryBlacklist) Purge(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64

	now := m.now()
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
			n++
		}
	}

	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (m *MemoryBlacklist) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
