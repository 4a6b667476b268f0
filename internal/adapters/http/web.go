package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"mailroom/internal/adapters/email"
	"mailroom/internal/adapters/http/middleware"
	batchStore "mailroom/internal/adapters/storage/batch"
	"mailroom/internal/application/orchestrators"
	"mailroom/internal/domain/contact"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// ContactStore is the contact list storage used by the handlers.
type ContactStore interface {
	Save(ctx context.Context, r io.Reader) ([]contact.Contact, error)
	Load(ctx context.Context) ([]contact.Contact, error)
}

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the handlers call into.
type Deps struct {
	ContactStore ContactStore
	BatchStore   batchStore.Store
	Verifier     email.Verifier
	Sender       email.Sender
	Completer    orchestrators.Completer           // nil disables drafting
	RenderHTML   func(body string) (string, error) // nil sends plain text only
	SendWorkers  int
	UploadDir    string
	DB           Pinger // nil skips the database check in /healthz
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey        []byte // 32 bytes
	Secure         bool   // Production: Secure cookies, HTTPS-only CSRF
	TrustedOrigins []string
	LoginRate      int // Login attempts per minute per IP; <= 0 means 10
}

// Global dependencies (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// NewMux wires HTTP handlers for the app.
func NewMux(d *Deps, opts Options) http.Handler {
	deps = d
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Secure

	loginRate := opts.LoginRate
	if loginRate <= 0 {
		loginRate = 10
	}
	loginLimiter := middleware.NewRateLimiter(loginRate, time.Minute)

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	registerRoutes(mux, loginLimiter)

	// Apply middleware: RequestLog -> SecurityHeaders -> CSRF -> Auth -> Mux
	return middleware.Chain(mux,
		middleware.Auth(sessions),
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{
			Secure:         opts.Secure,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.SecurityHeaders,
		middleware.RequestLog(0),
	)
}
