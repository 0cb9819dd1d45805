// Package passwordreset implements password reset through one-time codes.
//
// A Flow serves one principal kind. Request stores a fresh code and marks every earlier unused
// code of the same email as used, so only the latest code is ever accepted. Reset consumes the
// code with a compare-and-swap update in the same transaction as the password change.
package passwordreset

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/token"
	"github.com/municipal-dp/digital-profile/internal/validation"
)

const (
	issuer     = "digital-profile"
	codePeriod = 30
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid password reset config")

// PasswordTarget is the credential store whose passwords a Flow resets.
type PasswordTarget interface {
	Exists(ctx context.Context, email string) (bool, error)
	SetPasswordTx(tx *gorm.DB, email, hash string) error
}

// RequestInput asks for a reset code.
type RequestInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ResetInput sets a new password with a reset code.
type ResetInput struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Code            string `json:"code" validate:"required,numeric,min=6,max=8"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// Flow is the password reset flow of one channel.
type Flow struct {
	db       *gorm.DB
	channel  models.OtpChannel
	target   PasswordTarget
	notifier Notifier
	ttl      time.Duration
	digits   otp.Digits
	now      func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithNotifier replaces the default LogNotifier.
func WithNotifier(n Notifier) Option {
	return func(f *Flow) { f.notifier = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates the flow of channel resetting passwords of target.
func New(
	db *gorm.DB,
	channel models.OtpChannel,
	target PasswordTarget,
	cfg config.PasswordReset,
	opts ...Option,
) (*Flow, error) {
	if db == nil || target == nil {
		return nil, fmt.Errorf("%w: db and target are required", ErrInvalidConfig)
	}

	if cfg.OtpTTL <= 0 {
		return nil, fmt.Errorf("%w: otp ttl must be positive", ErrInvalidConfig)
	}

	var digits otp.Digits

	switch cfg.Digits {
	case 0, 6:
		digits = otp.DigitsSix
	case 8:
		digits = otp.DigitsEight
	default:
		return nil, fmt.Errorf("%w: %d digits", ErrInvalidConfig, cfg.Digits)
	}

	f := &Flow{
		db:       db,
		channel:  channel,
		target:   target,
		notifier: LogNotifier{},
		ttl:      cfg.OtpTTL,
		digits:   digits,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Channel returns the channel of the flow.
func (f *Flow) Channel() models.OtpChannel {
	return f.channel
}

// Request issues a new reset code for email and hands it to the notifier. Earlier codes of
// the same email stop working.
func (f *Flow) Request(ctx context.Context, in RequestInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	email := auth.NormalizeEmail(in.Email)

	exists, err := f.target.Exists(ctx, email)
	if err != nil {
		return err
	}

	if !exists {
		return apperror.UserNotFound("email", email).With("principal", string(f.channel))
	}

	now := f.now()

	code, err := f.generateCode(email, now)
	if err != nil {
		return err
	}

	row := &models.PasswordResetOtp{
		Channel:   f.channel,
		Email:     email,
		CodeHash:  token.Hash(code),
		ExpiresAt: now.Add(f.ttl),
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetOtp{}).
			Where("channel = ? AND email = ? AND is_used = ?", f.channel, email, false).
			Updates(map[string]any{"is_used": true, "used_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to supersede reset codes: %w", res.Error)
		}

		if res.RowsAffected > 0 {
			log.Debug().Str("channel", string(f.channel)).Str("email", email).
				Int64("superseded", res.RowsAffected).Msg("superseded reset codes")
		}

		return tx.Create(row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	requestsTotal.WithLabelValues(string(f.channel)).Inc()

	if err := f.notifier.SendResetCode(ctx, f.channel, email, code, row.ExpiresAt); err != nil {
		return fmt.Errorf("failed to deliver reset code: %w", err)
	}

	return nil
}

// Reset sets a new password when in.Code is the latest unused and unexpired code of in.Email.
// The code is consumed only together with the password change.
func (f *Flow) Reset(ctx context.Context, in ResetInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	email := auth.NormalizeEmail(in.Email)

	hash, err := models.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.PasswordResetOtp

		errFind := tx.Where("channel = ? AND email = ?", f.channel, email).Order("id DESC").First(&latest).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return apperror.InvalidOtp(email)
		}

		if errFind != nil {
			return fmt.Errorf("failed to load reset code: %w", errFind)
		}

		now := f.now()
		if subtle.ConstantTimeCompare([]byte(latest.CodeHash), []byte(token.Hash(in.Code))) != 1 || !latest.Usable(now) {
			return apperror.InvalidOtp(email)
		}

		res := tx.Model(&models.PasswordResetOtp{}).
			Where("id = ? AND is_used = ?", latest.ID, false).
			Updates(map[string]any{"is_used": true, "used_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to consume reset code: %w", res.Error)
		}

		if res.RowsAffected != 1 {
			return apperror.InvalidOtp(email)
		}

		return f.target.SetPasswordTx(tx, email, hash)
	})
	if err != nil {
		resetsTotal.WithLabelValues(string(f.channel), resetOutcome(err)).Inc()
		return err
	}

	resetsTotal.WithLabelValues(string(f.channel), "success").Inc()
	log.Info().Str("channel", string(f.channel)).Str("email", email).Msg("password reset")

	return nil
}

// Purge removes used and expired codes of the channel. It implements token.Collector.
func (f *Flow) Purge(ctx context.Context) (int64, error) {
	res := f.db.WithContext(ctx).
		Where("channel = ? AND (is_used = ? OR expires_at <= ?)", f.channel, true, f.now()).
		Delete(&models.PasswordResetOtp{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge reset codes: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// generateCode derives a code from a fresh TOTP secret, so codes are independent per request.
func (f *Flow) generateCode(email string, now time.Time) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
		Period:      codePeriod,
		Digits:      f.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create otp secret: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), now, totp.ValidateOpts{
		Period:    codePeriod,
		Digits:    f.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return code, nil
}

func resetOutcome(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidOtp):
		return "invalid_otp"
	case errors.Is(err, apperror.ErrValidation):
		return "invalid_request"
	case errors.Is(err, apperror.ErrUserNotFound):
		return "unknown_user"
	default:
		return "error"
	}
}
