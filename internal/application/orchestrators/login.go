package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	emailAdapter "mailroom/internal/adapters/email"
	"mailroom/internal/domain/email"
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Address string
	Secret  string
}

// LoginResult carries the verified credentials for session creation.
type LoginResult struct {
	Credentials email.Credentials
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Verifier emailAdapter.Verifier
}

// ExecuteLogin verifies credentials with a live handshake against the mail provider.
// PRE: none
// POST: Returns the credentials on success; *email.AuthError otherwise
// INVARIANT: No session state is touched here; the caller creates one only on success
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	creds := email.Credentials{Address: input.Address, Secret: input.Secret}
	if err := creds.Validate(); err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Address, "reason", "missing_fields")
		return LoginResult{}, &email.AuthError{Address: input.Address, Err: err}
	}

	if err := deps.Verifier.Verify(ctx, creds); err != nil {
		var authErr *email.AuthError
		if !errors.As(err, &authErr) {
			authErr = &email.AuthError{Address: input.Address, Err: err}
		}
		slog.Info("auth_event", "event", "login_failed", "email", input.Address, "reason", "provider_rejected")
		return LoginResult{}, authErr
	}

	slog.Info("auth_event", "event", "login_success", "email", input.Address)
	return LoginResult{Credentials: creds}, nil
}

// SessionRemover deletes a session by its token.
type SessionRemover interface {
	Delete(token string)
}

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Token   string
	Address string // For logging only
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions SessionRemover
}

// ExecuteLogout drops the session holding the caller's credentials.
// PRE: none
// POST: No session exists for input.Token
func ExecuteLogout(_ context.Context, input LogoutInput, deps LogoutDeps) {
	if input.Token != "" {
		deps.Sessions.Delete(input.Token)
	}
	slog.Info("auth_event", "event", "logout", "email", input.Address)
}
