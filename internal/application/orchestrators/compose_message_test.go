package orchestrators

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"mailroom/internal/domain/contact"
	"mailroom/internal/domain/email"
)

// mapReader serves file contents from a map.
func mapReader(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return []byte(data), nil
	}
}

func TestComposeMessage_SubstitutesName(t *testing.T) {
	msg, err := ComposeMessage(ComposeMessageInput{
		Sender:   "me@x.com",
		Contact:  contact.Contact{Email: "a@x.com", Name: "Ann"},
		Template: email.MessageTemplate{Subject: "Hi {{name}}", BodyTemplate: "Dear {{name}}, bye {{name}}."},
	}, ComposeMessageDeps{ReadFile: mapReader(nil)})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}
	if msg.Body != "Dear Ann, bye Ann." {
		t.Errorf("Body = %q", msg.Body)
	}
	if msg.Subject != "Hi {{name}}" {
		t.Errorf("Subject = %q, want template subject unchanged", msg.Subject)
	}
	if msg.From != "me@x.com" || msg.To != "a@x.com" {
		t.Errorf("From/To = %q/%q", msg.From, msg.To)
	}
}

func TestComposeMessage_BodyWithoutTokenUnchanged(t *testing.T) {
	bodies := []string{"", "Hello there", "{name} and {{ name }} are not tokens", "line1\nline2"}
	for _, body := range bodies {
		msg, err := ComposeMessage(ComposeMessageInput{
			Contact:  contact.Contact{Email: "a@x.com", Name: "Ann"},
			Template: email.MessageTemplate{BodyTemplate: body},
		}, ComposeMessageDeps{ReadFile: mapReader(nil)})
		if err != nil {
			t.Fatalf("ComposeMessage(%q): %v", body, err)
		}
		if msg.Body != body {
			t.Errorf("Body = %q, want %q", msg.Body, body)
		}
	}
}

func TestComposeMessage_EmptyNameRemovesToken(t *testing.T) {
	msg, err := ComposeMessage(ComposeMessageInput{
		Contact:  contact.Contact{Email: "a@x.com"},
		Template: email.MessageTemplate{BodyTemplate: "Hi {{name}}!"},
	}, ComposeMessageDeps{ReadFile: mapReader(nil)})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}
	if msg.Body != "Hi !" {
		t.Errorf("Body = %q, want %q", msg.Body, "Hi !")
	}
}

func TestComposeMessage_Attachments(t *testing.T) {
	files := map[string]string{
		"/tmp/up/report.pdf": "%PDF",
		"/tmp/up/data.bin9":  "raw",
	}
	msg, err := ComposeMessage(ComposeMessageInput{
		Contact: contact.Contact{Email: "a@x.com"},
		Template: email.MessageTemplate{
			BodyTemplate:    "see attached",
			AttachmentPaths: []string{"/tmp/up/report.pdf", "/tmp/up/data.bin9"},
		},
	}, ComposeMessageDeps{ReadFile: mapReader(files)})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}
	if len(msg.Attachments) != 2 {
		t.Fatalf("len(Attachments) = %d, want 2", len(msg.Attachments))
	}
	if a := msg.Attachments[0]; a.Filename != "report.pdf" || a.ContentType != "application/pdf" || string(a.Content) != "%PDF" {
		t.Errorf("Attachments[0] = %+v", a)
	}
	if a := msg.Attachments[1]; a.Filename != "data.bin9" || a.ContentType != defaultContentType {
		t.Errorf("Attachments[1] = %+v", a)
	}
}

func TestComposeMessage_UnreadableAttachment(t *testing.T) {
	_, err := ComposeMessage(ComposeMessageInput{
		Contact:  contact.Contact{Email: "a@x.com"},
		Template: email.MessageTemplate{AttachmentPaths: []string{"/missing.txt"}},
	}, ComposeMessageDeps{ReadFile: mapReader(nil)})
	var are *email.AttachmentReadError
	if !errors.As(err, &are) {
		t.Fatalf("err = %v, want AttachmentReadError", err)
	}
	if are.Path != "/missing.txt" || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("AttachmentReadError = %+v", are)
	}
}

func TestComposeMessage_RenderHTML(t *testing.T) {
	render := func(body string) (string, error) { return "<p>" + body + "</p>", nil }
	msg, err := ComposeMessage(ComposeMessageInput{
		Contact:  contact.Contact{Email: "a@x.com", Name: "Ann"},
		Template: email.MessageTemplate{BodyTemplate: "Hi {{name}}"},
	}, ComposeMessageDeps{ReadFile: mapReader(nil), RenderHTML: render})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}
	if msg.HTML != "<p>Hi Ann</p>" {
		t.Errorf("HTML = %q", msg.HTML)
	}
	if msg.Body != "Hi Ann" {
		t.Errorf("Body = %q, plain body must stay the substituted template", msg.Body)
	}
}

func TestComposeMessage_RenderHTMLFailureKeepsPlain(t *testing.T) {
	render := func(string) (string, error) { return "", errors.New("boom") }
	msg, err := ComposeMessage(ComposeMessageInput{
		Contact:  contact.Contact{Email: "a@x.com"},
		Template: email.MessageTemplate{BodyTemplate: "plain"},
	}, ComposeMessageDeps{ReadFile: mapReader(nil), RenderHTML: render})
	if err != nil {
		t.Fatalf("ComposeMessage: %v", err)
	}
	if msg.HTML != "" || !strings.Contains(msg.Body, "plain") {
		t.Errorf("msg = %+v", msg)
	}
}
