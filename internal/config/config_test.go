package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var allKeys = []string{
	"MAILROOM_ADDR", "MAILROOM_ENV", "MAILROOM_DB_PATH", "MAILROOM_CONTACTS_PATH",
	"MAILROOM_UPLOAD_DIR", "MAILROOM_TRANSPORT", "MAILROOM_SMTP_HOST", "MAILROOM_SMTP_PORT",
	"MAILROOM_RESEND_KEY", "MAILROOM_SEND_WORKERS", "MAILROOM_HTML_BODY", "MAILROOM_HTML_MARKDOWN", "MAILROOM_CSRF_KEY",
	"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL", "SENTRY_DSN",
}

// clearEnv blanks every variable Config reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Env != "development" || cfg.DBPath != "mailroom.db" {
		t.Errorf("server defaults = %+v", cfg)
	}
	if cfg.ContactsPath != "contacts.csv" || cfg.UploadDir != os.TempDir() {
		t.Errorf("path defaults = %q, %q", cfg.ContactsPath, cfg.UploadDir)
	}
	if cfg.Transport != TransportSMTP || cfg.SMTPHost != "smtp.gmail.com" || cfg.SMTPPort != 587 {
		t.Errorf("transport defaults = %q %q %d", cfg.Transport, cfg.SMTPHost, cfg.SMTPPort)
	}
	if cfg.SendWorkers != 1 || cfg.CSRFKey != nil {
		t.Errorf("send defaults = %d %v", cfg.SendWorkers, cfg.CSRFKey)
	}
	if cfg.HTMLBody || cfg.HTMLMarkdown {
		t.Errorf("HTML part should be off by default: html = %v markdown = %v", cfg.HTMLBody, cfg.HTMLMarkdown)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILROOM_TRANSPORT", "Resend")
	t.Setenv("MAILROOM_RESEND_KEY", "re_123")
	t.Setenv("MAILROOM_SEND_WORKERS", "4")
	t.Setenv("MAILROOM_HTML_BODY", "true")
	t.Setenv("MAILROOM_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("OPENROUTER_API_KEY", "sk-or")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Transport != TransportResend || cfg.ResendKey != "re_123" {
		t.Errorf("transport = %q key = %q", cfg.Transport, cfg.ResendKey)
	}
	if cfg.SendWorkers != 4 || !cfg.HTMLBody || cfg.HTMLMarkdown {
		t.Errorf("workers = %d html = %v markdown = %v", cfg.SendWorkers, cfg.HTMLBody, cfg.HTMLMarkdown)
	}
	if len(cfg.CSRFKey) != 32 {
		t.Errorf("len(CSRFKey) = %d", len(cfg.CSRFKey))
	}
	if cfg.OpenRouterAPIKey != "sk-or" {
		t.Errorf("OpenRouterAPIKey = %q", cfg.OpenRouterAPIKey)
	}
}

func TestFromEnv_MarkdownImpliesHTMLBody(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILROOM_HTML_MARKDOWN", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.HTMLMarkdown || !cfg.HTMLBody {
		t.Errorf("html = %v markdown = %v, want both true", cfg.HTMLBody, cfg.HTMLMarkdown)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown transport", map[string]string{"MAILROOM_TRANSPORT": "carrier-pigeon"}, "MAILROOM_TRANSPORT"},
		{"resend without key", map[string]string{"MAILROOM_TRANSPORT": "resend"}, "MAILROOM_RESEND_KEY"},
		{"bad port", map[string]string{"MAILROOM_SMTP_PORT": "abc"}, "MAILROOM_SMTP_PORT"},
		{"port out of range", map[string]string{"MAILROOM_SMTP_PORT": "70000"}, "MAILROOM_SMTP_PORT"},
		{"zero workers", map[string]string{"MAILROOM_SEND_WORKERS": "0"}, "MAILROOM_SEND_WORKERS"},
		{"bad bool", map[string]string{"MAILROOM_HTML_BODY": "maybe"}, "MAILROOM_HTML_BODY"},
		{"csrf not hex", map[string]string{"MAILROOM_CSRF_KEY": "zz"}, "MAILROOM_CSRF_KEY"},
		{"csrf short", map[string]string{"MAILROOM_CSRF_KEY": "abcd"}, "MAILROOM_CSRF_KEY"},
		{"production without csrf", map[string]string{"MAILROOM_ENV": "production"}, "MAILROOM_CSRF_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("MAILROOM_ADDR")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MAILROOM_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999 from .env", cfg.Addr)
	}
}

func TestLoad_NoDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	if _, err := Load(); err != nil {
		t.Fatalf("Load without .env: %v", err)
	}
}
