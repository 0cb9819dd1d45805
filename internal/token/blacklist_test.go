package token

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/db/dbtest"
)

// mapStorage is a fiber.Storage keeping values in a map.
type mapStorage struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *mapStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.data[key], nil
}

func (m *mapStorage) Set(key string, val []byte, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = val
	m.ttl[key] = exp

	return nil
}

func (m *mapStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

func (m *mapStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.data)

	return nil
}

func (m *mapStorage) Close() error { return nil }

func TestBlacklists(t *testing.T) {
	backends := map[string]func(t *testing.T) Blacklist{
		"memory":  func(_ *testing.T) Blacklist { return NewMemoryBlacklist() },
		"db":      func(t *testing.T) Blacklist { return NewDBBlacklist(dbtest.New(t)) },
		"storage": func(_ *testing.T) Blacklist { return NewStorageBlacklist(newMapStorage()) },
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			bl := newBackend(t)

			key := Hash("token-a")

			found, err := bl.Contains(ctx, key)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, bl.Add(ctx, key, time.Now().Add(time.Hour)))
			require.NoError(t, bl.Add(ctx, key, time.Now().Add(time.Hour)))

			found, err = bl.Contains(ctx, key)
			require.NoError(t, err)
			assert.True(t, found)

			found, err = bl.Contains(ctx, Hash("token-b"))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStorageBlacklistUsesRemainingLifetime(t *testing.T) {
	storage := newMapStorage()
	bl := NewStorageBlacklist(storage)

	require.NoError(t, bl.Add(context.Background(), "k", time.Now().Add(time.Hour)))
	assert.InDelta(t, time.Hour.Seconds(), storage.ttl["k"].Seconds(), 5)

	require.NoError(t, bl.Add(context.Background(), "old", time.Now().Add(-time.Second)))
	assert.NotContains(t, storage.data, "old")
}

func TestMemoryBlacklistPurge(t *testing.T) {
	ctx := context.Background()
	bl := NewMemoryBlacklist()

	require.NoError(t, bl.Add(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, bl.Add(ctx, "live", time.Now().Add(time.Minute)))

	found, err := bl.Contains(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := bl.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, bl.Len())
}

func TestDBBlacklistPurge(t *testing.T) {
	ctx := context.Background()
	bl := NewDBBlacklist(dbtest.New(t))

	require.NoError(t, bl.Add(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, bl.Add(ctx, "live", time.Now().Add(time.Minute)))

	n, err := bl.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := bl.Contains(ctx, "live")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryBlacklistConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	bl := NewMemoryBlacklist()

	var wg sync.WaitGroup

	for i := range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := fmt.Sprintf("token-%d", i)
			assert.NoError(t, bl.Add(ctx, key, time.Now().Add(time.Minute)))

			found, err := bl.Contains(ctx, key)
			assert.NoError(t, err)
			assert.True(t, found)
		}()
	}

	wg.Wait()
	assert.Equal(t, 32, bl.Len())
}

func TestRunCollectorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bl := NewMemoryBlacklist()

	require.NoError(t, bl.Add(ctx, "expired", time.Now().Add(-time.Minute)))

	done := make(chan struct{})

	go func() {
		RunCollector(ctx, bl, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return bl.Len() == 0 }, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
