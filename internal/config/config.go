// Package config loads process settings from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Transport names accepted by MAILROOM_TRANSPORT.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportNoop   = "noop"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr         string
	Env          string
	DBPath       string
	ContactsPath string
	UploadDir    string

	Transport   string
	SMTPHost    string
	SMTPPort    int
	ResendKey   string
	SendWorkers int

	HTMLBody     bool // Add an escaped text/html alternative
	HTMLMarkdown bool // Render the alternative as Markdown instead; implies HTMLBody

	CSRFKey []byte // 32 bytes; nil means a random key per process

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	SentryDSN string
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment. Values in a .env file in the
// working directory are applied first without overriding variables already set.
// PRE: none
// POST: Returns a validated Config or an error naming the bad setting
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
// PRE: none
// POST: Returns a validated Config or an error naming the bad setting
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:              envOrDefault("MAILROOM_ADDR", ":8080"),
		Env:               envOrDefault("MAILROOM_ENV", "development"),
		DBPath:            envOrDefault("MAILROOM_DB_PATH", "mailroom.db"),
		ContactsPath:      envOrDefault("MAILROOM_CONTACTS_PATH", "contacts.csv"),
		UploadDir:         envOrDefault("MAILROOM_UPLOAD_DIR", os.TempDir()),
		Transport:         strings.ToLower(envOrDefault("MAILROOM_TRANSPORT", TransportSMTP)),
		SMTPHost:          envOrDefault("MAILROOM_SMTP_HOST", "smtp.gmail.com"),
		ResendKey:         os.Getenv("MAILROOM_RESEND_KEY"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		OpenRouterModel:   os.Getenv("OPENROUTER_MODEL"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
	}

	var err error
	if cfg.SMTPPort, err = envAsInt("MAILROOM_SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.SendWorkers, err = envAsInt("MAILROOM_SEND_WORKERS", 1); err != nil {
		return Config{}, err
	}
	if cfg.HTMLBody, err = envAsBool("MAILROOM_HTML_BODY", false); err != nil {
		return Config{}, err
	}
	if cfg.HTMLMarkdown, err = envAsBool("MAILROOM_HTML_MARKDOWN", false); err != nil {
		return Config{}, err
	}
	if cfg.HTMLMarkdown {
		cfg.HTMLBody = true
	}
	if key := os.Getenv("MAILROOM_CSRF_KEY"); key != "" {
		if cfg.CSRFKey, err = hex.DecodeString(key); err != nil {
			return Config{}, fmt.Errorf("MAILROOM_CSRF_KEY: must be hex: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
// PRE: none
// POST: Returns nil if the Config is usable
func (c Config) Validate() error {
	switch c.Transport {
	case TransportSMTP, TransportNoop:
	case TransportResend:
		if c.ResendKey == "" {
			return errors.New("MAILROOM_RESEND_KEY is required when MAILROOM_TRANSPORT=resend")
		}
	default:
		return fmt.Errorf("MAILROOM_TRANSPORT: unknown transport %q", c.Transport)
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("MAILROOM_SMTP_PORT: %d out of range", c.SMTPPort)
	}
	if c.SendWorkers < 1 {
		return fmt.Errorf("MAILROOM_SEND_WORKERS: must be at least 1, got %d", c.SendWorkers)
	}
	if c.CSRFKey != nil && len(c.CSRFKey) != 32 {
		return fmt.Errorf("MAILROOM_CSRF_KEY: must decode to 32 bytes, got %d", len(c.CSRFKey))
	}
	if c.IsProduction() && c.CSRFKey == nil {
		return errors.New("MAILROOM_CSRF_KEY is required in production")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envAsBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
