package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/containerd/errdefs"
	"google.golang.org/genai"
)

func TestNewWithoutCredentialsFailsEveryCall(t *testing.T) {
	t.Parallel()

	for _, provider := range []string{"", ProviderOpenAI, ProviderGemini} {
		c, err := New(context.Background(), Config{Provider: provider}, nil)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", provider, err)
		}
		if _, err := c.Complete(context.Background(), nil, "m"); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("provider %q: expected ErrNotConfigured, got %v", provider, err)
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Provider: "carrier-pigeon"}, nil)
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

type recordingCompleter struct {
	messages []domain.Turn
	model    string
}

func (r *recordingCompleter) Complete(_ context.Context, messages []domain.Turn, model string) (string, error) {
	r.messages = messages
	r.model = model
	return "pong", nil
}

func TestProbe(t *testing.T) {
	t.Parallel()

	rec := &recordingCompleter{}
	reply, err := Probe(context.Background(), rec, "gpt-4-turbo")
	if err != nil || reply != "pong" {
		t.Fatalf("Probe = %q, %v", reply, err)
	}
	if rec.model != "gpt-4-turbo" || len(rec.messages) != 2 || rec.messages[0].Role != domain.RoleSystem {
		t.Fatalf("unexpected probe request: model=%q messages=%+v", rec.model, rec.messages)
	}
	if rec.messages[0].Content != "You are a helpful assistant." || rec.messages[1].Content != "Hello, OpenAI! This is a connection test." {
		t.Errorf("unexpected probe prompt: %+v", rec.messages)
	}
}

func TestToGenAIContents(t *testing.T) {
	t.Parallel()

	system, contents := toGenAIContents([]domain.Turn{
		{Role: domain.RoleSystem, Content: "be useful"},
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
		{Role: domain.RoleUser, Content: "q2"},
	})
	if system != "be useful" {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	wantRoles := []string{string(genai.RoleUser), string(genai.RoleModel), string(genai.RoleUser)}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Errorf("content %d role = %q, want %q", i, c.Role, wantRoles[i])
		}
		if len(c.Parts) != 1 || c.Parts[0].Text == "" {
			t.Errorf("content %d has unexpected parts: %+v", i, c.Parts)
		}
	}
}
