package prompt

import (
	"testing"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
)

func strategy(t *testing.T) persona.Persona {
	t.Helper()
	p, err := persona.NewRegistry("").Lookup(persona.StrategyConsultant)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	return p
}

func TestComposeRendersContextFields(t *testing.T) {
	t.Parallel()

	p := strategy(t)
	msgs := Compose(p, nil, []domain.Field{
		{Key: "company_sector", Value: "Healthcare"},
		{Key: "document_type", Value: "NDA"},
	}, "Is this compliant?")

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != p.SystemInstruction {
		t.Errorf("unexpected system message: %+v", msgs[0])
	}
	want := "Relevant context for this interaction:\nCompany sector: Healthcare\nDocument type: NDA\n\nUser query: Is this compliant?"
	if msgs[1].Role != domain.RoleUser || msgs[1].Content != want {
		t.Errorf("user message = %q, want %q", msgs[1].Content, want)
	}
}

func TestComposeWithoutFields(t *testing.T) {
	t.Parallel()

	want := "Relevant context for this interaction:\n\nUser query: Hello"
	for _, fields := range [][]domain.Field{nil, {}, {{Key: "user_role", Value: nil}}} {
		msgs := Compose(strategy(t), nil, fields, "Hello")
		if got := msgs[len(msgs)-1].Content; got != want {
			t.Errorf("fields %v: got %q, want %q", fields, got, want)
		}
	}
}

func TestComposeSkipsNilFieldsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	got := UserMessage([]domain.Field{
		{Key: "user_role", Value: "Manager"},
		{Key: "user_department", Value: nil},
		{Key: "company_strategic_goals", Value: ""},
		{Key: "module_accessed", Value: "strategy_module"},
	}, "Go?")
	want := "Relevant context for this interaction:\nUser role: Manager\nCompany strategic goals: \nModule accessed: strategy_module\n\nUser query: Go?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComposeKeepsHistoryVerbatim(t *testing.T) {
	t.Parallel()

	history := []domain.Turn{
		{Role: domain.RoleAssistant, Content: "Earlier answer"},
		{Role: domain.RoleUser, Content: "Follow-up"},
		{Role: domain.RoleAssistant, Content: "Second answer"},
	}
	msgs := Compose(strategy(t), history, nil, "Next")
	if len(msgs) != len(history)+2 {
		t.Fatalf("expected %d messages, got %d", len(history)+2, len(msgs))
	}
	for i, h := range history {
		if msgs[i+1] != h {
			t.Errorf("message %d = %+v, want %+v", i+1, msgs[i+1], h)
		}
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"company_sector":          "Company sector",
		"module_accessed":         "Module accessed",
		"ARR_target":              "Arr target",
		"x":                       "X",
		"":                        "",
		"company_strategic_goals": "Company strategic goals",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
