package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a staff account of the municipality.
// A user can log in only after approval; deletion is a soft state flip, never a row removal.
type User struct {
	// ID is the surrogate key, assigned at construction.
	ID ID `gorm:"type:varchar(36);primaryKey"`
	// Email is the unique login of the user.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// Password is the Argon2id hash of the user's password.
	Password string `gorm:"size:255;not null"`
	// FullName is the display name.
	FullName string `gorm:"size:200"`
	// IsApproved gates authentication; new registrations start unapproved.
	IsApproved bool `gorm:"not null;default:false"`
	// IsDeleted marks a soft-deleted user.
	IsDeleted bool `gorm:"not null;default:false"`
	// DeletedAt is when the user was soft deleted.
	DeletedAt *time.Time
	// IsWardLevel scopes the user to a single ward.
	IsWardLevel bool `gorm:"not null;default:false"`
	// WardNumber is the ward the user is scoped to when IsWardLevel is set.
	WardNumber *int
	// Permissions are the permission rows assigned to the user.
	Permissions []Permission `gorm:"many2many:user_permissions;constraint:OnDelete:CASCADE"`
	// CreatedBy is the admin that created the user, nil for self-registration.
	CreatedBy *ID `gorm:"type:varchar(36)"`
	// UpdatedBy is the last actor that changed the user.
	UpdatedBy *ID `gorm:"type:varchar(36)"`
	// Version is incremented by every state change and guards concurrent updates.
	Version int64 `gorm:"not null;default:1"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// NewUser constructs a user with a fresh ID.
func NewUser(email, passwordHash, fullName string) *User {
	return &User{
		ID:       NewID(),
		Email:    email,
		Password: passwordHash,
		FullName: fullName,
		Version:  1,
	}
}

// BeforeCreate guarantees the surrogate key is set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewID()
	}

	return nil
}

// TokenSubject returns the subject claim of the user's tokens.
func (u *User) TokenSubject() string {
	return u.Email
}

// PermissionTypes returns the enum names of the assigned permissions.
func (u *User) PermissionTypes() []string {
	out := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		out = append(out, p.Type)
	}

	return out
}
