package models

import "time"

// Permission is the persisted row of one permission type.
// There is exactly one row per type; principals reference rows, never copies.
type Permission struct {
	// ID is the unique identifier for the permission row.
	ID uint `gorm:"primaryKey"`
	// Type is the enum name of the permission (e.g. "VIEW_USER").
	Type string `gorm:"uniqueIndex;size:64;not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
