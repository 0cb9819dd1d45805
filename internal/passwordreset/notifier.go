package passwordreset

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// Notifier delivers reset codes to their owner.
type Notifier interface {
	SendResetCode(ctx context.Context, channel models.OtpChannel, email, code string, expiresAt time.Time) error
}

// LogNotifier records code issuance in the log. The code itself is only logged when ShowCode
// is set, which the daemon does in dev mode.
type LogNotifier struct {
	ShowCode bool
}

// SendResetCode implements Notifier.
func (n LogNotifier) SendResetCode(_ context.Context, channel models.OtpChannel, email, code string, expiresAt time.Time) error {
	ev := log.Info().Str("channel", string(channel)).Str("email", email).Time("expiresAt", expiresAt)
	if n.ShowCode {
		ev = ev.Str("code", code)
	}

	ev.Msg("password reset code issued")

	return nil
}
