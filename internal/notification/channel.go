package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/config"
)

// Channel sends one message to a set of recipients. Recipients are email
// addresses or device tokens depending on the channel.
type Channel interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}

// NewEmailChannel picks the email provider from MAIL_PROVIDER. Unknown values
// fall back to the no-op channel.
func NewEmailChannel(cfg *config.Config, log zerolog.Logger) Channel {
	switch cfg.MailProvider {
	case "smtp":
		return NewSMTPChannel(cfg, log)
	case "ses":
		return NewSESChannel(cfg, log)
	case "noop", "":
		return NoopChannel{log: log}
	default:
		log.Warn().Str("provider", cfg.MailProvider).Msg("unknown mail provider, using noop")
		return NoopChannel{log: log}
	}
}

// NoopChannel only logs what it would have sent.
type NoopChannel struct {
	log zerolog.Logger
}

func (n NoopChannel) Send(_ context.Context, recipients []string, subject, _ string) error {
	n.log.Debug().Strs("to", recipients).Str("subject", subject).Msg("message would be sent (noop)")
	return nil
}
