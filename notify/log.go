package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger     zerolog.Logger
	withBodies bool
}

func NewLogSender(logger zerolog.Logger, withBodies bool) *LogSender {
	return &LogSender{
		logger:     logger.With().Str("component", "mail").Logger(),
		withBodies: withBodies,
	}
}

func (s *LogSender) Send(_ context.Context, msg mailAuth.MailMessage) error {
	ev := s.logger.Info().
		Str("kind", msg.Kind).
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject)
	if s.withBodies {
		ev = ev.Str("body", msg.Body)
	}
	ev.Msg("mail")
	return nil
}
