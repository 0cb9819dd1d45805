package token

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StorageBlacklist keeps entries in a fiber.Storage such as the mysql or postgres
// storages. The storage expires entries itself.
type StorageBlacklist struct {
	storage fiber.Storage
	now     func() time.Time
}

// NewStorageBlacklist creates a blacklist on storage.
func NewStorageBlacklist(storage fiber.Storage) *StorageBlacklist {
	return &StorageBlacklist{storage: storage, now: time.Now}
}

var present = []byte{1} //nolint:gochecknoglobals

// Add implements Blacklist.
func (b *StorageBlacklist) Add(_ context.Context, key string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}

	if err := b.storage.Set(key, present, ttl); err != nil {
		return fmt.Errorf("failed to store blacklist entry: %w", err)
	}

	return nil
}

// Contains implements Blacklist.
func (b *StorageBlacklist) Contains(_ context.Context, key string) (bool, error) {
	val, err := b.storage.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to read blacklist entry: %w", err)
	}

	return len(val) > 0, nil
}

// Close releases the storage.
func (b *StorageBlacklist) Close() error {
	return b.storage.Close()
}
