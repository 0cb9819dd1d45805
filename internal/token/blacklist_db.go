package token

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// DBBlacklist persists entries in the token_blacklist table through gorm.
type DBBlacklist struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBBlacklist creates a blacklist on db. The table must be migrated.
func NewDBBlacklist(db *gorm.DB) *DBBlacklist {
	return &DBBlacklist{db: db, now: time.Now}
}

// Add implements Blacklist. A duplicate key keeps the existing row.
func (b *DBBlacklist) Add(ctx context.Context, key string, expiresAt time.Time) error {
	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token_hash"}}, DoNothing: true}).
		Create(&models.TokenBlacklist{TokenHash: key, ExpiresAt: expiresAt}).Error
	if err != nil {
		return fmt.Errorf("failed to insert blacklist entry: %w", err)
	}

	return nil
}

// Contains implements Blacklist.
func (b *DBBlacklist) Contains(ctx context.Context, key string) (bool, error) {
	var count int64

	err := b.db.WithContext(ctx).Model(&models.TokenBlacklist{}).
		Where("token_hash = ? AND expires_at > ?", key, b.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query blacklist: %w", err)
	}

	return count > 0, nil
}

// Purge implements Collector.
func (b *DBBlacklist) Purge(ctx context.Context) (int64, error) {
	res := b.db.WithContext(ctx).Where("expires_at <= ?", b.now()).Delete(&models.TokenBlacklist{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge blacklist: %w", res.Error)
	}

	return res.RowsAffected, nil
}
