package contact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoContacts is returned when no contact list has been uploaded yet.
var ErrNoContacts = errors.New("no contacts uploaded")

// Contact is one recipient row from an uploaded contact list.
type Contact struct {
	Email string
	Name  string // Optional; empty when the column is absent or blank
}

// Validate checks that the Contact can be addressed.
// PRE: Contact struct is populated
// POST: Returns nil if Email is non-empty, MalformedInputError otherwise
// INVARIANT: Email syntax is not checked; bad addresses surface as delivery failures
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return &MalformedInputError{Message: "email is required"}
	}
	return nil
}

// MalformedInputError is returned when a contact file cannot be parsed or is
// missing required data.
type MalformedInputError struct {
	Row     int // 1-based CSV line number; 0 when the error is not row-specific
	Message string
	Err     error
}

// Error implements the error interface.
// PRE: e.Message is set
// POST: Returns the message, prefixed with the row when known
func (e *MalformedInputError) Error() string {
	msg := e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying parse error, if any.
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
