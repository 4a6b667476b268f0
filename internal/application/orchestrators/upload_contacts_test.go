package orchestrators

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mailroom/internal/adapters/storage/contacts"
	"mailroom/internal/domain/contact"
)

func TestExecuteUploadContacts(t *testing.T) {
	store := contacts.NewFileStore(filepath.Join(t.TempDir(), "contacts.csv"))
	ctx := context.Background()

	res, err := ExecuteUploadContacts(ctx, UploadContactsInput{
		Filename: "list.csv",
		File:     strings.NewReader("email,name\na@x.com,Ann\nb@x.com,Bob\n"),
	}, UploadContactsDeps{ContactStore: store})
	if err != nil {
		t.Fatalf("ExecuteUploadContacts: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Name != "Bob" {
		t.Errorf("Load = %+v", loaded)
	}
}

func TestExecuteUploadContacts_Malformed(t *testing.T) {
	store := contacts.NewFileStore(filepath.Join(t.TempDir(), "contacts.csv"))

	_, err := ExecuteUploadContacts(context.Background(), UploadContactsInput{
		File: strings.NewReader("name\nAnn\n"),
	}, UploadContactsDeps{ContactStore: store})
	var me *contact.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedInputError", err)
	}

	_, err = store.Load(context.Background())
	if !errors.Is(err, ErrNoContacts) {
		t.Errorf("Load after rejected upload: err = %v, want ErrNoContacts", err)
	}
}

func TestExecuteUploadContacts_NoFile(t *testing.T) {
	_, err := ExecuteUploadContacts(context.Background(), UploadContactsInput{}, UploadContactsDeps{})
	var me *contact.MalformedInputError
	if !errors.As(err, &me) {
		t.Errorf("err = %v, want MalformedInputError", err)
	}
}
