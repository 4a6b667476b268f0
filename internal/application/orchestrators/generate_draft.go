package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/prompts"

	"mailroom/internal/domain/draft"
)

// DraftSystemPrompt is the fixed instruction sent with every draft request.
const DraftSystemPrompt = "You are a professional email writer."

// ErrGeneratorNotConfigured is returned when no completion backend is set up.
var ErrGeneratorNotConfigured = errors.New("draft generator is not configured")

var draftPrompt = prompts.NewPromptTemplate(
	"Description: {{.description}}\nReturn as: Subject: <subject>\nBody: <body>",
	[]string{"description"},
)

// Completer sends one system+user exchange to a text-generation service.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GenerateDraftInput carries input for the draft orchestrator.
type GenerateDraftInput struct {
	Description string
}

// GenerateDraftDeps holds dependencies for GenerateDraft.
type GenerateDraftDeps struct {
	Completer Completer // nil when no API key is configured
}

// GenerateDraftResult is the proposed subject and body.
type GenerateDraftResult struct {
	Subject  string
	Body     string
	Degraded bool // Set when generation failed and Body carries the error text
}

// ExecuteGenerateDraft asks the completion service for a subject and body.
// PRE: none
// POST: Never fails; on error Subject is empty and Body is the error text
func ExecuteGenerateDraft(ctx context.Context, input GenerateDraftInput, deps GenerateDraftDeps) GenerateDraftResult {
	raw, err := generateRaw(ctx, input.Description, deps.Completer)
	if err != nil {
		genErr := &draft.GenerationError{Err: err}
		slog.Warn("draft_event", "event", "generation_failed", "error", err)
		return GenerateDraftResult{Body: genErr.Error(), Degraded: true}
	}

	d := draft.Parse(raw)
	slog.Info("draft_event", "event", "generated", "structured", d.Subject != draft.FallbackSubject)
	return GenerateDraftResult{Subject: d.Subject, Body: d.Body}
}

func generateRaw(ctx context.Context, description string, c Completer) (string, error) {
	if c == nil {
		return "", ErrGeneratorNotConfigured
	}
	prompt, err := draftPrompt.Format(map[string]any{"description": description})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return c.Complete(ctx, DraftSystemPrompt, prompt)
}
