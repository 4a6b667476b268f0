package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "mailroom/internal/adapters/email"
	web "mailroom/internal/adapters/http"
	"mailroom/internal/adapters/llm"
	"mailroom/internal/adapters/storage"
	batchStore "mailroom/internal/adapters/storage/batch"
	contactStore "mailroom/internal/adapters/storage/contacts"
	"mailroom/internal/config"
	"mailroom/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     version,
	})
	slog.SetDefault(logger)
	defer logging.Flush(2 * time.Second)

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		logging.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	// WAL mode, foreign keys and busy timeout come from the DSN
	db, err := sql.Open("sqlite", storage.DSN(cfg.DBPath))
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.InitDB(db); err != nil {
		return err
	}
	timedDB := storage.NewTimedDB(db, 0)
	slog.Info("db_event", "event", "initialized", "path", cfg.DBPath)

	contacts := contactStore.NewFileStore(cfg.ContactsPath)
	slog.Info("contacts_event", "event", "store_ready", "path", contacts.Path())

	deps := &web.Deps{
		ContactStore: contacts,
		BatchStore:   batchStore.NewSQLiteStore(timedDB),
		SendWorkers:  cfg.SendWorkers,
		UploadDir:    cfg.UploadDir,
		DB:           timedDB,
	}

	// Configure the mail transport. Resend delivers via API but the login
	// handshake is still checked against the SMTP server.
	smtp := emailPkg.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort)
	switch cfg.Transport {
	case config.TransportResend:
		deps.Sender = emailPkg.NewResendSender(cfg.ResendKey)
		deps.Verifier = smtp
	case config.TransportNoop:
		noop := emailPkg.NewNoopSender()
		deps.Sender = noop
		deps.Verifier = noop
		if cfg.IsProduction() {
			slog.Warn("email_event", "event", "delivery_disabled", "reason", "noop transport in production")
		}
	default:
		deps.Sender = smtp
		deps.Verifier = smtp
	}
	slog.Info("email_event", "event", "transport_configured", "transport", cfg.Transport, "workers", cfg.SendWorkers)

	switch {
	case cfg.HTMLMarkdown:
		deps.RenderHTML = emailPkg.NewMarkdownRenderer().Render
	case cfg.HTMLBody:
		deps.RenderHTML = emailPkg.NewHTMLRenderer().Render
	}

	if cfg.OpenRouterAPIKey != "" {
		client, err := llm.NewOpenRouterClient(llm.Config{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
		})
		if err != nil {
			return err
		}
		deps.Completer = client
	} else {
		slog.Info("draft_event", "event", "drafting_disabled", "reason", "OPENROUTER_API_KEY not set")
	}

	csrfKey := cfg.CSRFKey
	if csrfKey == nil {
		// Dev only: Validate rejects a missing key in production.
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return err
		}
	}

	handler := web.NewMux(deps, web.Options{
		CSRFKey: csrfKey,
		Secure:  cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	// Batches in flight get a grace period to finish their sends.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
