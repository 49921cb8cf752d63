package mailAuth

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Mail kinds carried on each [MailMessage].
const (
	MailKindVerification  = "email_verification"
	MailKindPasswordReset = "password_reset"
)

const defaultLinkBase = "http://localhost:8000"

// MailMessage is one plain-text email.
type MailMessage struct {
	From    string
	To      string
	Subject string
	Body    string
	Kind    string
}

// MailSender delivers a message. It runs on the mail dispatcher goroutine,
// never on the request path, and its errors are only logged and counted.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailSenderFunc adapts a function to [MailSender].
type MailSenderFunc func(ctx context.Context, msg MailMessage) error

func (f MailSenderFunc) Send(ctx context.Context, msg MailMessage) error { return f(ctx, msg) }

func verificationMail(to, link string, resend bool) MailMessage {
	subject := "Confirm your email"
	if resend {
		subject = "Confirm email"
	}
	return MailMessage{
		To:      to,
		Subject: subject,
		Body:    "Please click on the following link to confirm your email: " + link,
		Kind:    MailKindVerification,
	}
}

func passwordResetMail(to, link string) MailMessage {
	return MailMessage{
		To:      to,
		Subject: "Password Reset Request",
		Body:    "Please click on the following link to reset your password: " + link,
		Kind:    MailKindPasswordReset,
	}
}

func (e *Engine) linkBase(ctx context.Context) string {
	base := strings.TrimSpace(e.config.Links.BaseURL)
	if base == "" {
		base = BaseURLFromContext(ctx)
	}
	if base == "" {
		base = defaultLinkBase
	}
	return strings.TrimRight(base, "/")
}

func (e *Engine) confirmEmailLink(ctx context.Context, token string) string {
	return e.linkBase(ctx) + "/confirm_email/" + url.PathEscape(token) + "/"
}

func (e *Engine) passwordResetLink(ctx context.Context, uid, token string) string {
	return e.linkBase(ctx) + "/reset-password/" + url.PathEscape(uid) + "/" + url.PathEscape(token) + "/"
}

// queueMail hands msg to the mail dispatcher and returns immediately.
func (e *Engine) queueMail(ctx context.Context, msg MailMessage) {
	if msg.From == "" {
		msg.From = e.config.Mail.From
	}
	e.mail.Emit(ctx, msg)
}

func (e *Engine) deliverMail(ctx context.Context, msg MailMessage) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Mail.SendTimeout)
	defer cancel()

	if err := e.mailSender.Send(ctx, msg); err != nil {
		e.metricInc(MetricMailFailed)
		e.logger.Error().Err(err).
			Str("kind", msg.Kind).
			Str("to", msg.To).
			Msg("mail delivery failed")
		return
	}
	e.metricInc(MetricMailSent)
	e.logger.Debug().Str("kind", msg.Kind).Str("to", msg.To).Msg("mail sent")
}

// discardMailSender is used when no sender is configured. Bodies carry
// tokens, so only the envelope is logged.
type discardMailSender struct {
	logger zerolog.Logger
}

func (s discardMailSender) Send(_ context.Context, msg MailMessage) error {
	s.logger.Info().
		Str("kind", msg.Kind).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("no mail sender configured, message discarded")
	return nil
}
