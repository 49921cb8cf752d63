package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth"
)

// ErrDeliveryFailed wraps every provider rejection.
var ErrDeliveryFailed = errors.New("mail delivery failed")

const (
	ProviderLog      = "log"
	ProviderSendGrid = "sendgrid"
	ProviderResend   = "resend"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	FromName string
	// BaseURL overrides the provider API host. Empty means the public API.
	BaseURL string
	// LogBodies makes the log sender print message bodies, links included.
	// Development only.
	LogBodies bool
}

// New returns the sender named by cfg.Provider.
func New(cfg Config, logger zerolog.Logger) (mailAuth.MailSender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLog:
		return NewLogSender(logger, cfg.LogBodies), nil
	case ProviderSendGrid:
		if cfg.APIKey == "" {
			return nil, errors.New("sendgrid requires an API key")
		}
		return NewSendGridSender(cfg.APIKey, cfg.FromName, cfg.BaseURL), nil
	case ProviderResend:
		if cfg.APIKey == "" {
			return nil, errors.New("resend requires an API key")
		}
		return NewResendSender(cfg.APIKey, cfg.FromName, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

func formatFrom(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}
