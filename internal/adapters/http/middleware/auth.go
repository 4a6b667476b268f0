package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"mailroom/internal/domain/email"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionTTL is how long a login stays valid.
const SessionTTL = 24 * time.Hour

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "mailroom_session"

// SecureCookies controls the Secure flag on session cookies. Set in production.
var SecureCookies = false

var errUnseal = errors.New("session secret cannot be unsealed")

// Session is the per-request view of a logged-in user.
type Session struct {
	Token       string
	Credentials email.Credentials
	CreatedAt   time.Time
}

// Address returns the logged-in sender address.
func (s Session) Address() string {
	return s.Credentials.Address
}

// storedSession keeps the secret sealed while at rest in memory.
type storedSession struct {
	address   string
	sealed    []byte // nonce || secretbox(secret)
	createdAt time.Time
}

// SessionStore is an in-memory session store. Secrets are sealed with a
// per-process key and only opened for the request that uses them.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
	key      [32]byte
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store with a random sealing key.
// PRE: none
// POST: Returns an empty store; panics only if the OS random source fails
func NewSessionStore() *SessionStore {
	ss := &SessionStore{
		sessions: make(map[string]storedSession),
		ttl:      SessionTTL,
		now:      time.Now,
	}
	if _, err := rand.Read(ss.key[:]); err != nil {
		panic("session key: " + err.Error())
	}
	return ss
}

// Create stores verified credentials and returns the new session token.
// PRE: creds passed a login handshake
// POST: Session is stored, token is returned; expired sessions are swept
func (ss *SessionStore) Create(creds email.Credentials) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(creds.Secret), &nonce, &ss.key)

	now := ss.now()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sweep(now)
	ss.sessions[token] = storedSession{
		address:   creds.Address,
		sealed:    sealed,
		createdAt: now,
	}
	return token, nil
}

// sweep drops expired sessions. Caller holds mu.
func (ss *SessionStore) sweep(now time.Time) {
	for token, s := range ss.sessions {
		if now.Sub(s.createdAt) > ss.ttl {
			delete(ss.sessions, token)
		}
	}
}

// Get retrieves a session by token with its secret unsealed.
// PRE: token is non-empty
// POST: Returns session if valid and not expired; expired sessions are dropped
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	stored, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(stored.createdAt) > ss.ttl {
		ss.Delete(token)
		return Session{}, false
	}
	secret, err := ss.open(stored.sealed)
	if err != nil {
		ss.Delete(token)
		return Session{}, false
	}
	return Session{
		Token:       token,
		Credentials: email.Credentials{Address: stored.address, Secret: secret},
		CreatedAt:   stored.createdAt,
	}, true
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

func (ss *SessionStore) open(sealed []byte) (string, error) {
	if len(sealed) < 24 {
		return "", errUnseal
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &ss.key)
	if !ok {
		return "", errUnseal
	}
	return string(plain), nil
}

// Auth returns middleware that extracts the session from the cookie and sets it in context.
// It does NOT block unauthenticated requests; handlers decide.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r); token != "" {
				if session, ok := sessions.Get(token); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken returns the session cookie value, or "" when absent.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
