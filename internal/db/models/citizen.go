package models

import (
	"time"

	"gorm.io/gorm"
)

// Citizen represents a resident account. Citizens authenticate against their own token
// audience and carry no staff permissions.
type Citizen struct {
	// ID is the surrogate key, assigned at construction.
	ID ID `gorm:"type:varchar(36);primaryKey"`
	// Email is the unique login of the citizen.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// Password is the Argon2id hash of the citizen's password.
	Password string `gorm:"size:255;not null"`
	// FullName is the display name.
	FullName string `gorm:"size:200"`
	// WardNumber is the ward of residence.
	WardNumber *int
	// IsApproved gates authentication.
	IsApproved bool `gorm:"not null;default:false"`
	// IsDeleted marks a soft-deleted citizen.
	IsDeleted bool `gorm:"not null;default:false"`
	// DeletedAt is when the citizen was soft deleted.
	DeletedAt *time.Time
	// UpdatedBy is the last staff user that changed the citizen.
	UpdatedBy *ID `gorm:"type:varchar(36)"`
	// Version is incremented by every state change.
	Version int64 `gorm:"not null;default:1"`
	// CreatedAt is the timestamp when the citizen was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the citizen was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Citizen model.
func (Citizen) TableName() string {
	return "citizens"
}

// NewCitizen constructs a citizen with a fresh ID.
func NewCitizen(email, passwordHash, fullName string) *Citizen {
	return &Citizen{
		ID:       NewID(),
		Email:    email,
		Password: passwordHash,
		FullName: fullName,
		Version:  1,
	}
}

// BeforeCreate guarantees the surrogate key is set.
func (c *Citizen) BeforeCreate(_ *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewID()
	}

	return nil
}

// TokenSubject returns the subject claim of the citizen's tokens.
func (c *Citizen) TokenSubject() string {
	return c.Email
}
