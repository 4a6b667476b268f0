package contacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailroom/internal/domain/contact"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []contact.Contact
	}{
		{"email and name", "email,name\na@x.com,Ann\n", []contact.Contact{{Email: "a@x.com", Name: "Ann"}}},
		{"no name column", "email\na@x.com\nb@x.com\n", []contact.Contact{{Email: "a@x.com"}, {Email: "b@x.com"}}},
		{"blank name", "email,name\na@x.com,\n", []contact.Contact{{Email: "a@x.com"}}},
		{"column order and case", "Name , EMAIL\nAnn,a@x.com\n", []contact.Contact{{Email: "a@x.com", Name: "Ann"}}},
		{"extra columns", "id,email,name,city\n1,a@x.com,Ann,Oslo\n", []contact.Contact{{Email: "a@x.com", Name: "Ann"}}},
		{"short row", "email,name\na@x.com\n", []contact.Contact{{Email: "a@x.com"}}},
		{"duplicates kept", "email\na@x.com\na@x.com\n", []contact.Contact{{Email: "a@x.com"}, {Email: "a@x.com"}}},
		{"header only", "email,name\n", nil},
		{"bom header", "\ufeffemail,name\na@x.com,Ann\n", []contact.Contact{{Email: "a@x.com", Name: "Ann"}}},
		{"syntax not checked", "email\nnot-an-address\n", []contact.Contact{{Email: "not-an-address"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRow int
	}{
		{"empty file", "", 0},
		{"missing email column", "name,phone\nAnn,123\n", 1},
		{"blank email", "email,name\na@x.com,Ann\n ,Bob\n", 3},
		{"bad quoting", "email,name\n\"a@x.com,Ann\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			var me *contact.MalformedInputError
			if !errors.As(err, &me) {
				t.Fatalf("err = %v, want MalformedInputError", err)
			}
			if me.Row != tt.wantRow {
				t.Errorf("Row = %d, want %d", me.Row, tt.wantRow)
			}
		})
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "contacts.csv"))
	ctx := context.Background()

	saved, err := store.Save(ctx, strings.NewReader("email,name\na@x.com,Ann\n"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved = %v", saved)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := contact.Contact{Email: "a@x.com", Name: "Ann"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Load = %+v, want [%+v]", got, want)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "contacts.csv"))
	ctx := context.Background()

	if _, err := store.Save(ctx, strings.NewReader("email\na@x.com\nb@x.com\n")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, err := store.Save(ctx, strings.NewReader("email\nc@x.com\n")); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Email != "c@x.com" {
		t.Errorf("Load = %+v, want only c@x.com", got)
	}
}

func TestFileStore_MalformedUploadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Save(ctx, strings.NewReader("email\na@x.com\n")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := store.Save(ctx, strings.NewReader("name\nAnn\n"))
	var me *contact.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedInputError", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "email\na@x.com\n" {
		t.Errorf("file = %q, want previous upload", data)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.csv"))
	_, err := store.Load(context.Background())
	if !errors.Is(err, contact.ErrNoContacts) {
		t.Errorf("err = %v, want ErrNoContacts", err)
	}
}

func TestNewFileStore_DefaultPath(t *testing.T) {
	if got := NewFileStore("").Path(); got != DefaultPath {
		t.Errorf("Path = %q, want %q", got, DefaultPath)
	}
}
