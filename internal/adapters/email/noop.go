package email

import (
	"context"
	"log/slog"

	domain "mailroom/internal/domain/email"
)

// NoopSender is a no-op transport for development and testing.
// It logs sends and accepts any well-formed credentials.
type NoopSender struct{}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Verify accepts any credentials with an address and secret.
// PRE: none
// POST: Returns *AuthError only when creds are incomplete
func (s *NoopSender) Verify(_ context.Context, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return &domain.AuthError{Address: creds.Address, Err: err}
	}
	slog.Info("noop_verify", "address", creds.Address)
	return nil
}

// Send logs the message but does not deliver it.
// PRE: msg is a ComposedMessage
// POST: Returns nil unless msg is unaddressed
func (s *NoopSender) Send(_ context.Context, _ domain.Credentials, msg domain.ComposedMessage) error {
	if err := msg.Validate(); err != nil {
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}
	slog.Info("noop_email_send", "to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}
