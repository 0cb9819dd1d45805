package models

import "time"

// TokenBlacklist stores explicitly invalidated tokens until their natural expiry.
type TokenBlacklist struct {
	// ID is the unique identifier for the entry.
	ID uint64 `gorm:"primaryKey"`
	// TokenHash is the hex SHA-256 of the raw token.
	TokenHash string `gorm:"uniqueIndex;size:64;not null"`
	// ExpiresAt is when the token would have expired anyway; the entry can be purged after it.
	ExpiresAt time.Time `gorm:"index;not null"`
	// CreatedAt is the timestamp when the token was invalidated (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the TokenBlacklist model.
func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}
