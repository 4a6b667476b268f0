package email

import (
	"context"

	domain "mailroom/internal/domain/email"
)

// Sender delivers one composed message on behalf of the logged-in user.
// Implementations return a *domain.DeliveryError on failure.
type Sender interface {
	Send(ctx context.Context, creds domain.Credentials, msg domain.ComposedMessage) error
}

// Verifier checks credentials with a live login handshake against the provider.
// Implementations return a *domain.AuthError when the provider rejects them.
type Verifier interface {
	Verify(ctx context.Context, creds domain.Credentials) error
}
