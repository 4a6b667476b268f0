package orchestrators

import (
	"log/slog"
	"mime"
	"path/filepath"

	"mailroom/internal/domain/contact"
	"mailroom/internal/domain/email"
)

const defaultContentType = "application/octet-stream"

// ComposeMessageInput carries the parts of one outbound message.
type ComposeMessageInput struct {
	Sender   string
	Contact  contact.Contact
	Template email.MessageTemplate
}

// ComposeMessageDeps holds dependencies for ComposeMessage.
type ComposeMessageDeps struct {
	ReadFile   func(path string) ([]byte, error)
	RenderHTML func(body string) (string, error) // Optional
}

// ComposeMessage resolves the template for one contact.
// PRE: deps.ReadFile is set
// POST: Body is the template with every {{name}} replaced by the contact name;
// one Attachment per path in template order, or *email.AttachmentReadError
// INVARIANT: Subject is used as-is; no network or disk writes
func ComposeMessage(input ComposeMessageInput, deps ComposeMessageDeps) (email.ComposedMessage, error) {
	msg := email.ComposedMessage{
		From:    input.Sender,
		To:      input.Contact.Email,
		Subject: input.Template.Subject,
		Body:    email.SubstituteName(input.Template.BodyTemplate, input.Contact.Name),
	}

	for _, path := range input.Template.AttachmentPaths {
		data, err := deps.ReadFile(path)
		if err != nil {
			return email.ComposedMessage{}, &email.AttachmentReadError{Path: path, Err: err}
		}
		msg.Attachments = append(msg.Attachments, email.Attachment{
			Filename:    filepath.Base(path),
			ContentType: contentTypeFor(path),
			Content:     data,
		})
	}

	if deps.RenderHTML != nil {
		html, err := deps.RenderHTML(msg.Body)
		if err != nil {
			// Plain text still goes out.
			slog.Warn("email_event", "event", "html_render_failed", "to", msg.To, "error", err)
		} else {
			msg.HTML = html
		}
	}

	return msg, nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return defaultContentType
}
