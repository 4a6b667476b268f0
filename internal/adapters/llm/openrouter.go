package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenRouter defaults.
const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "meta-llama/llama-3.3-70b-instruct:free"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 400
)

// ErrNoChoices is returned when the completion response carries no content.
var ErrNoChoices = errors.New("received no choices from completion API")

// Config contains chat-completion client configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatClient sends a system instruction and a user prompt to a chat model.
type ChatClient struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewOpenRouterClient creates a ChatClient for OpenRouter's OpenAI-compatible API.
// PRE: cfg.APIKey is non-empty
// POST: Returns a client; missing model/base URL/limits fall back to the defaults
func NewOpenRouterClient(cfg Config) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	return NewChatClient(model, cfg.Temperature, cfg.MaxTokens), nil
}

// NewChatClient wraps any langchaingo model.
// Non-positive temperature or token limits fall back to the defaults.
func NewChatClient(model llms.Model, temperature float64, maxTokens int) *ChatClient {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &ChatClient{model: model, temperature: temperature, maxTokens: maxTokens}
}

// Complete sends one system + user exchange and returns the first choice.
// PRE: prompt is non-empty
// POST: Returns the model's text, or an error from the transport or API
func (c *ChatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Content, nil
}
