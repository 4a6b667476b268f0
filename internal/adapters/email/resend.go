package email

import (
	"context"
	"log/slog"

	"github.com/resend/resend-go/v2"

	domain "mailroom/internal/domain/email"
)

// ResendSender relays messages through the Resend API instead of SMTP.
// The logged-in address is used as From; the SMTP secret is not needed.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a new ResendSender with the given API key.
// PRE: apiKey is a valid Resend API key
// POST: Returns a ready-to-use sender
func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

// Send relays a single message via Resend.
// PRE: msg has From and To set; the From domain is verified in Resend
// POST: Message is queued for delivery, or *DeliveryError is returned
func (s *ResendSender) Send(ctx context.Context, _ domain.Credentials, msg domain.ComposedMessage) error {
	if err := msg.Validate(); err != nil {
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", msg.To, "subject", msg.Subject)
	return nil
}
