package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds SendGrid API settings.
type SendGridConfig struct {
	APIKey   string
	From     string
	FromName string
}

// SendGridService sends email through the SendGrid v3 API.
type SendGridService struct {
	config SendGridConfig
	client *sendgrid.Client
}

// NewSendGridService creates a SendGrid sender.
func NewSendGridService(config SendGridConfig) *SendGridService {
	return &SendGridService{
		config: config,
		client: sendgrid.NewSendClient(config.APIKey),
	}
}

// Send delivers msg. A non-2xx response is an error.
func (s *SendGridService) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.config.FromName, s.config.From)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
