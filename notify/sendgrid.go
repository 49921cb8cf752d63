package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/MrEthical07/mailAuth"
)

const sendGridSendPath = "/v3/mail/send"

// SendGridSender delivers through the SendGrid v3 mail send API.
type SendGridSender struct {
	apiKey   string
	fromName string
	host     string
}

func NewSendGridSender(apiKey, fromName, host string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, fromName: fromName, host: host}
}

func (s *SendGridSender) Send(ctx context.Context, msg mailAuth.MailMessage) error {
	message := mail.NewSingleEmailPlainText(
		mail.NewEmail(s.fromName, msg.From),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Body,
	)

	// A request per send: the SDK stores the body on the request value.
	request := sendgrid.GetRequest(s.apiKey, sendGridSendPath, s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrDeliveryFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: sendgrid status %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}
