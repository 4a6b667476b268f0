package orchestrators

import (
	"context"
	"io"
	"log/slog"

	"mailroom/internal/domain/contact"
)

// ContactStoreForUpload defines the store interface needed by UploadContacts.
type ContactStoreForUpload interface {
	Save(ctx context.Context, r io.Reader) ([]contact.Contact, error)
}

// UploadContactsInput carries input for the upload orchestrator.
type UploadContactsInput struct {
	Filename string // For logging only
	File     io.Reader
}

// UploadContactsResult reports what was stored.
type UploadContactsResult struct {
	Count int
}

// UploadContactsDeps holds dependencies for UploadContacts.
type UploadContactsDeps struct {
	ContactStore ContactStoreForUpload
}

// ExecuteUploadContacts replaces the stored contact list with an uploaded CSV.
// PRE: input.File is non-nil
// POST: On success the list holds exactly the uploaded rows;
// a *contact.MalformedInputError leaves the previous list in place
func ExecuteUploadContacts(ctx context.Context, input UploadContactsInput, deps UploadContactsDeps) (UploadContactsResult, error) {
	if input.File == nil {
		return UploadContactsResult{}, &contact.MalformedInputError{Message: "no file uploaded"}
	}
	contacts, err := deps.ContactStore.Save(ctx, input.File)
	if err != nil {
		slog.Info("contacts_event", "event", "upload_rejected", "filename", input.Filename, "error", err)
		return UploadContactsResult{}, err
	}
	slog.Info("contacts_event", "event", "uploaded", "filename", input.Filename, "count", len(contacts))
	return UploadContactsResult{Count: len(contacts)}, nil
}
