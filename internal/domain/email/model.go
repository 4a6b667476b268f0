package email

import (
	"errors"
	"strings"
)

// StatusSent is the SendResult status recorded for a successful delivery.
// Any other status value is the failure text.
const StatusSent = "sent"

// NameToken is the only placeholder recognised in body templates.
const NameToken = "{{name}}"

// Domain errors
var (
	ErrEmptyAddress = errors.New("sender address is required")
	ErrEmptySecret  = errors.New("password is required")
	ErrNoRecipient  = errors.New("message must have a recipient")
)

// Credentials identify the sender to the mail provider.
// They live only in the in-memory session and are never written to disk.
type Credentials struct {
	Address string
	Secret  string
}

// Validate checks that both halves of the credentials are present.
// PRE: none
// POST: Returns nil if Address and Secret are non-empty
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrEmptyAddress
	}
	if c.Secret == "" {
		return ErrEmptySecret
	}
	return nil
}

// MessageTemplate is the user-supplied message shared by every recipient of a batch.
type MessageTemplate struct {
	Subject         string
	BodyTemplate    string   // May contain NameToken
	AttachmentPaths []string // Files read and attached to every message
}

// Attachment is a file payload carried by a ComposedMessage.
type Attachment struct {
	Filename    string // Base name of the source path
	ContentType string
	Content     []byte
}

// ComposedMessage is a fully resolved message for a single recipient.
type ComposedMessage struct {
	From        string
	To          string
	Subject     string
	Body        string // Plain text, placeholder already substituted
	HTML        string // Optional HTML alternative of Body
	Attachments []Attachment
}

// Validate checks that the message can be handed to a transport.
// PRE: ComposedMessage is populated
// POST: Returns nil if From and To are set
func (m ComposedMessage) Validate() error {
	if m.From == "" {
		return ErrEmptyAddress
	}
	if m.To == "" {
		return ErrNoRecipient
	}
	return nil
}

// SendResult is the outcome of delivering to one recipient.
type SendResult struct {
	Recipient string
	Status    string // StatusSent or the failure text
	Err       error  // Typed cause when Status != StatusSent
}

// Sent builds a successful SendResult.
func Sent(recipient string) SendResult {
	return SendResult{Recipient: recipient, Status: StatusSent}
}

// Failed builds a SendResult carrying err as its status text.
// PRE: err is non-nil
// POST: Status is err.Error(); Err is err
func Failed(recipient string, err error) SendResult {
	return SendResult{Recipient: recipient, Status: err.Error(), Err: err}
}

// IsSent reports whether delivery succeeded.
// INVARIANT: SendResult fields are not mutated
func (r SendResult) IsSent() bool {
	return r.Status == StatusSent
}

// SubstituteName replaces every occurrence of NameToken in body with name.
// Literal replacement only: no escaping, no other placeholders.
func SubstituteName(body, name string) string {
	return strings.ReplaceAll(body, NameToken, name)
}
