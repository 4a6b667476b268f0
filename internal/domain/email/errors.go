package email

import "fmt"

// AuthError is returned when the mail provider rejects a login handshake.
type AuthError struct {
	Address string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Address, e.Err)
}

// Unwrap returns the provider error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// AttachmentReadError is returned when an attachment path cannot be read.
type AttachmentReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *AttachmentReadError) Error() string {
	return fmt.Sprintf("cannot read attachment %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *AttachmentReadError) Unwrap() error {
	return e.Err
}

// DeliveryError is returned when a single message could not be delivered.
type DeliveryError struct {
	Recipient string
	Err       error
}

// Error implements the error interface.
// The recipient is already recorded alongside the status, so only the cause is shown.
func (e *DeliveryError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the transport error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
