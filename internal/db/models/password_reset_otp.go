package models

import "time"

// OtpChannel separates the reset codes of staff users and citizens sharing an email.
type OtpChannel string

const (
	// OtpChannelStaff is used by staff password resets.
	OtpChannelStaff OtpChannel = "staff"
	// OtpChannelCitizen is used by citizen password resets.
	OtpChannelCitizen OtpChannel = "citizen"
)

// PasswordResetOtp is a one-time code authorizing a password reset for one email.
type PasswordResetOtp struct {
	// ID is the unique identifier for the code.
	ID uint64 `gorm:"primaryKey"`
	// Channel is the principal kind the code was issued for.
	Channel OtpChannel `gorm:"type:varchar(16);not null;index:idx_otp_channel_email"`
	// Email is the owner of the code.
	Email string `gorm:"size:255;not null;index:idx_otp_channel_email"`
	// CodeHash is the hex SHA-256 of the one-time password sent to the owner.
	CodeHash string `gorm:"size:64;not null"`
	// ExpiresAt is the instant after which the code is rejected.
	ExpiresAt time.Time `gorm:"not null"`
	// IsUsed is set once the code was consumed or superseded.
	IsUsed bool `gorm:"not null;default:false"`
	// UsedAt is when IsUsed was set.
	UsedAt *time.Time
	// CreatedAt is the timestamp when the code was issued (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the PasswordResetOtp model.
func (PasswordResetOtp) TableName() string {
	return "password_reset_otps"
}

// Usable reports whether the code can still be consumed at now.
func (o *PasswordResetOtp) Usable(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}
