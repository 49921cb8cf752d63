package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/MrEthical07/mailAuth"
)

// ResendSender delivers through the Resend emails API.
type ResendSender struct {
	client   *resend.Client
	fromName string
}

func NewResendSender(apiKey, fromName, baseURL string) (*ResendSender, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client, fromName: fromName}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg mailAuth.MailMessage) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    formatFrom(s.fromName, msg.From),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		Tags:    []resend.Tag{{Name: "kind", Value: msg.Kind}},
	})
	if err != nil {
		return fmt.Errorf("%w: resend: %v", ErrDeliveryFailed, err)
	}
	return nil
}
