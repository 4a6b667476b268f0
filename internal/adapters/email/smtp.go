package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	domain "mailroom/internal/domain/email"
)

// Default outbound endpoint.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// SMTPSender delivers mail and verifies logins against an SMTP submission endpoint.
// Every call dials a fresh connection: connect, STARTTLS, AUTH PLAIN, transmit, close.
type SMTPSender struct {
	host      string
	port      int
	tlsConfig *tls.Config // nil uses the library default for host
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithTLSConfig sets the TLS configuration used for STARTTLS.
func WithTLSConfig(cfg *tls.Config) SMTPOption {
	return func(s *SMTPSender) {
		s.tlsConfig = cfg
	}
}

// NewSMTPSender creates an SMTPSender for host:port.
// PRE: host is non-empty; port > 0 (zero values fall back to the defaults)
// POST: Returns a sender that holds no connection state
func NewSMTPSender(host string, port int, opts ...SMTPOption) *SMTPSender {
	if host == "" {
		host = DefaultSMTPHost
	}
	if port <= 0 {
		port = DefaultSMTPPort
	}
	s := &SMTPSender{host: host, port: port}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify performs the login handshake and closes the connection.
// PRE: creds has an address and secret
// POST: Returns nil if the provider accepted AUTH, *AuthError otherwise
func (s *SMTPSender) Verify(ctx context.Context, creds domain.Credentials) error {
	c, err := s.newClient(creds)
	if err != nil {
		return &domain.AuthError{Address: creds.Address, Err: err}
	}
	if err := c.DialWithContext(ctx); err != nil {
		slog.Info("auth_event", "event", "smtp_handshake_failed", "address", creds.Address, "host", s.host)
		return &domain.AuthError{Address: creds.Address, Err: err}
	}
	if err := c.Close(); err != nil {
		slog.Warn("smtp_close_failed", "address", creds.Address, "error", err)
	}
	return nil
}

// Send delivers msg over a new authenticated connection.
// PRE: msg has From and To set
// POST: Returns nil once the server accepted the message, *DeliveryError otherwise
func (s *SMTPSender) Send(ctx context.Context, creds domain.Credentials, msg domain.ComposedMessage) error {
	m, err := buildMsg(msg)
	if err != nil {
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}
	c, err := s.newClient(creds)
	if err != nil {
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		slog.Error("smtp_send_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return &domain.DeliveryError{Recipient: msg.To, Err: err}
	}
	slog.Info("smtp_sent", "to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

func (s *SMTPSender) newClient(creds domain.Credentials) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Address),
		mail.WithPassword(creds.Secret),
	}
	if s.tlsConfig != nil {
		opts = append(opts, mail.WithTLSConfig(s.tlsConfig))
	}
	return mail.NewClient(s.host, opts...)
}

// buildMsg converts a ComposedMessage into a MIME message: a text/plain body,
// an optional text/html alternative and base64 attachments.
func buildMsg(msg domain.ComposedMessage) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}
