// Package contacts stores the uploaded contact list as a CSV file on local disk.
package contacts

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mailroom/internal/domain/contact"
)

// Column names recognised in the header row.
const (
	ColumnEmail = "email"
	ColumnName  = "name"
)

// DefaultPath is the file the contact list is written to when none is configured.
const DefaultPath = "contacts.csv"

// ParseCSV reads a contact list with a header row.
// PRE: r yields comma-separated text
// POST: Returns one Contact per data row in file order, or *contact.MalformedInputError
// INVARIANT: Duplicate emails are kept; address syntax is not checked
func ParseCSV(r io.Reader) ([]contact.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &contact.MalformedInputError{Message: "file is empty"}
	}
	if err != nil {
		return nil, &contact.MalformedInputError{Message: "cannot parse header", Err: err}
	}

	emailIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case ColumnEmail:
			if emailIdx < 0 {
				emailIdx = i
			}
		case ColumnName:
			if nameIdx < 0 {
				nameIdx = i
			}
		}
	}
	if emailIdx < 0 {
		return nil, &contact.MalformedInputError{Row: 1, Message: "missing required column \"email\""}
	}

	var out []contact.Contact
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			row := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				row = pe.StartLine
			}
			return nil, &contact.MalformedInputError{Row: row, Message: "cannot parse row", Err: err}
		}
		line, _ := cr.FieldPos(0)
		c := contact.Contact{Email: strings.TrimSpace(field(rec, emailIdx))}
		if nameIdx >= 0 {
			c.Name = strings.TrimSpace(field(rec, nameIdx))
		}
		if err := c.Validate(); err != nil {
			var me *contact.MalformedInputError
			if errors.As(err, &me) {
				me.Row = line
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// FileStore keeps the single current contact list at a fixed path.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a FileStore writing to path (DefaultPath when empty).
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Path returns the file the list is stored in.
func (s *FileStore) Path() string {
	return s.path
}

// Save validates and stores an uploaded contact list, replacing the previous one.
// PRE: r yields the uploaded CSV
// POST: On success the file holds exactly the upload and the parsed contacts are returned;
// on parse failure the previous file is untouched
func (s *FileStore) Save(ctx context.Context, r io.Reader) ([]contact.Contact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contacts, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create contacts dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".contacts-*.csv")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("write contacts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close contacts: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("replace contacts: %w", err)
	}
	return contacts, nil
}

// Load reads the stored contact list.
// PRE: none
// POST: Returns contacts in file order, contact.ErrNoContacts when nothing was uploaded,
// or *contact.MalformedInputError when the file was edited into an invalid state
func (s *FileStore) Load(ctx context.Context) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, contact.ErrNoContacts
	}
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}
