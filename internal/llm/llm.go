// Package llm talks to the external summarization providers.
//
// A Completer sends one system + user prompt pair and returns the text of
// the reply. Clients never retry on their own; retry policy belongs to the
// caller.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults for the OpenAI-compatible provider. DeepSeek speaks the OpenAI
// chat completions protocol.
const (
	DefaultOpenAIBaseURL   = "https://api.deepseek.com"
	DefaultOpenAIModel     = "deepseek-chat"
	DefaultAnthropicModel  = "claude-haiku-4-5"
	defaultPingMaxTokens   = 10
	defaultPingPrompt      = "Hello"
	defaultPingTemperature = 0
)

// Request is a single completion call.
type Request struct {
	System          string
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// Completer produces a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "openai" (default) or "anthropic"
	APIKey   string
	BaseURL  string
	Model    string
}

// New builds the Completer described by cfg. It returns ErrNotConfigured
// when cfg carries no API key.
func New(cfg Config) (Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrNotConfigured)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Provider, ErrUnknownProvider)
	}
}

// Ping sends a tiny completion to check connectivity and credentials.
func Ping(ctx context.Context, c Completer) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	text, err := c.Complete(ctx, Request{
		Prompt:          defaultPingPrompt,
		MaxOutputTokens: defaultPingMaxTokens,
		Temperature:     defaultPingTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return text, nil
}
