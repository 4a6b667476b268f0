package orchestrators

import (
	"errors"

	"mailroom/internal/domain/contact"
)

// Precondition failures for sending. Neither is retryable.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoContacts       = contact.ErrNoContacts
)
