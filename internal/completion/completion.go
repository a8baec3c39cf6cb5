// Package completion adapts external text-completion services.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/containerd/errdefs"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	// ErrNotConfigured is returned when the provider has no credentials.
	ErrNotConfigured = fmt.Errorf("completion service not configured: %w", errdefs.ErrUnavailable)
	// ErrEmptyReply is returned when the provider answered without content.
	ErrEmptyReply = fmt.Errorf("completion service returned an empty reply: %w", errdefs.ErrUnavailable)
)

// Completer turns a message sequence into a reply.
// Any returned error means no reply was produced.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Turn, model string) (string, error)
}

// Config selects and configures the provider.
type Config struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIURL    string
	GeminiAPIKey string
	Timeout      time.Duration
}

// New builds the Completer for cfg.Provider. A provider without credentials
// yields a Completer that fails every call with ErrNotConfigured, so the
// service can still start.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Completer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, completions will fail")
			return unconfigured{provider: ProviderOpenAI}, nil
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIURL, cfg.Timeout), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, completions will fail")
			return unconfigured{provider: ProviderGemini}, nil
		}
		g, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q: %w", cfg.Provider, errdefs.ErrInvalidArgument)
	}
}

type unconfigured struct {
	provider string
}

func (u unconfigured) Complete(context.Context, []domain.Turn, string) (string, error) {
	return "", fmt.Errorf("%s: %w", u.provider, ErrNotConfigured)
}

// Probe sends a single connectivity prompt and returns the reply.
func Probe(ctx context.Context, c Completer, model string) (string, error) {
	reply, err := c.Complete(ctx, []domain.Turn{
		{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
		{Role: domain.RoleUser, Content: "Hello, OpenAI! This is a connection test."},
	}, model)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
