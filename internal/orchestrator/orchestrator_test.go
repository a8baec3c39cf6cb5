package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/convlog"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
	"github.com/containerd/errdefs"
)

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []domain.Turn
	model    string
}

func (f *fakeCompleter) Complete(_ context.Context, messages []domain.Turn, model string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	f.model = model
	return f.reply, f.err
}

type recordingLog struct {
	mu     sync.Mutex
	events []convlog.Event
}

func (r *recordingLog) Log(e convlog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLog) Close() error { return nil }

func seededRepo(t *testing.T) *store.MemoryStore {
	t.Helper()
	repo := store.NewMemory()
	if _, err := store.Seed(context.Background(), repo); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return repo
}

func TestHandleEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seededRepo(t)
	registry := persona.NewRegistry("")
	completer := &fakeCompleter{reply: "Focus on adjacent markets."}
	convLog := &recordingLog{}
	o := New(repo, registry, completer, Options{HistoryLimit: store.DefaultHistoryLimit, ConversationLog: convLog})

	before, _ := repo.HistoryLen(ctx, "user123", "comp456")
	reply, err := o.Handle(ctx, Request{
		UserID:         "user123",
		CompanyID:      "comp456",
		Prompt:         "How should we expand?",
		ModuleAccessed: "strategy_module",
		Channel:        "test",
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if reply.Text != "Focus on adjacent markets." {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if reply.Persona.ID != persona.StrategyConsultant {
		t.Errorf("expected strategy consultant, got %q", reply.Persona.ID)
	}
	if reply.ExchangeID == "" {
		t.Error("expected exchange id")
	}

	want, _ := registry.Lookup(persona.StrategyConsultant)
	if completer.model != want.ModelID {
		t.Errorf("model = %q, want %q", completer.model, want.ModelID)
	}
	if len(completer.messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(completer.messages))
	}
	if completer.messages[0].Role != domain.RoleSystem || completer.messages[0].Content != want.SystemInstruction {
		t.Errorf("unexpected system message: %+v", completer.messages[0])
	}
	wantUser := "Relevant context for this interaction:\n" +
		"User role: Manager\n" +
		"User department: Sales\n" +
		"Company sector: Technology\n" +
		"Company stage: Growth\n" +
		"Company strategic goals: Expand market share, Improve customer retention\n" +
		"Module accessed: strategy_module\n\n" +
		"User query: How should we expand?"
	if completer.messages[1].Content != wantUser {
		t.Errorf("user message =\n%q\nwant\n%q", completer.messages[1].Content, wantUser)
	}

	after, _ := repo.HistoryLen(ctx, "user123", "comp456")
	if after-before != 2 {
		t.Fatalf("history grew by %d turns, want 2", after-before)
	}
	turns, _ := repo.RecentHistory(ctx, "user123", "comp456", 2)
	if turns[0] != (domain.Turn{Role: domain.RoleUser, Content: "How should we expand?"}) ||
		turns[1] != (domain.Turn{Role: domain.RoleAssistant, Content: "Focus on adjacent markets."}) {
		t.Errorf("unexpected recorded pair: %+v", turns)
	}

	if len(convLog.events) != 2 || convLog.events[0].EventType != "user_message" || convLog.events[1].EventType != "assistant_message" {
		t.Errorf("unexpected conversation log events: %+v", convLog.events)
	}
}

func TestHandleFailureLeavesHistoryUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seededRepo(t)
	if err := repo.AppendTurnPair(ctx, "user123", "comp456", "earlier", "answer"); err != nil {
		t.Fatalf("AppendTurnPair failed: %v", err)
	}

	for _, completer := range []*fakeCompleter{
		{err: errors.New("network down")},
		{reply: ""},
	} {
		o := New(repo, persona.NewRegistry(""), completer, Options{HistoryLimit: 3})
		before, _ := repo.HistoryLen(ctx, "user123", "comp456")

		reply, err := o.Handle(ctx, Request{UserID: "user123", CompanyID: "comp456", Prompt: "Hi"})
		if !errors.Is(err, ErrNoReply) {
			t.Fatalf("expected ErrNoReply, got %v", err)
		}
		if !errdefs.IsUnavailable(err) {
			t.Errorf("expected unavailable kind, got %v", err)
		}
		if reply.Text != "" {
			t.Errorf("expected empty reply, got %q", reply.Text)
		}
		after, _ := repo.HistoryLen(ctx, "user123", "comp456")
		if before != after {
			t.Errorf("history changed on failure: %d -> %d", before, after)
		}
		if completer.calls != 1 {
			t.Errorf("expected a single completion attempt, got %d", completer.calls)
		}
	}
}

func TestHandleUsesRecentHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seededRepo(t)
	for _, q := range []string{"first", "second"} {
		if err := repo.AppendTurnPair(ctx, "user789", "comp001", q, "re "+q); err != nil {
			t.Fatalf("AppendTurnPair failed: %v", err)
		}
	}

	completer := &fakeCompleter{reply: "ok"}
	o := New(repo, persona.NewRegistry(""), completer, Options{HistoryLimit: 3})
	reply, err := o.Handle(ctx, Request{UserID: "user789", CompanyID: "comp001", Prompt: "Review the NDA", ModuleAccessed: "Juridico"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Persona.ID != persona.LegalExpert {
		t.Errorf("expected legal expert, got %q", reply.Persona.ID)
	}

	// system + 3 history turns + user
	if len(completer.messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(completer.messages))
	}
	if completer.messages[1].Content != "re first" || completer.messages[3].Content != "re second" {
		t.Errorf("unexpected history in prompt: %+v", completer.messages[1:4])
	}
}

func TestHandleDefaultOptionsIncludeHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := store.NewMemory()
	if err := repo.AppendTurnPair(ctx, "u", "c", "earlier question", "earlier answer"); err != nil {
		t.Fatalf("AppendTurnPair failed: %v", err)
	}

	completer := &fakeCompleter{reply: "ok"}
	o := New(repo, persona.NewRegistry(""), completer, Options{})
	if _, err := o.Handle(ctx, Request{UserID: "u", CompanyID: "c", Prompt: "follow up"}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	// system + 2 history turns + user
	if len(completer.messages) != 4 {
		t.Fatalf("expected 4 messages, got %d: %+v", len(completer.messages), completer.messages)
	}
	if completer.messages[1].Content != "earlier question" || completer.messages[2].Content != "earlier answer" {
		t.Errorf("unexpected history in prompt: %+v", completer.messages[1:3])
	}
}

func TestHandleUnknownProfilesUseDefaults(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "ok"}
	o := New(store.NewMemory(), persona.NewRegistry(""), completer, Options{HistoryLimit: 3})
	reply, err := o.Handle(context.Background(), Request{UserID: "new", CompanyID: "startup", Prompt: "Hello"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Persona.ID != persona.StrategyConsultant {
		t.Errorf("expected fallback persona, got %q", reply.Persona.ID)
	}
	last := completer.messages[len(completer.messages)-1].Content
	for _, want := range []string{"User role: Unknown", "Company sector: Unknown", "Company strategic goals: \n"} {
		if !strings.Contains(last, want) {
			t.Errorf("user message missing %q:\n%s", want, last)
		}
	}
	if strings.Contains(last, "Module accessed") {
		t.Errorf("absent module should not be rendered:\n%s", last)
	}
}

func TestHandleValidatesRequest(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "ok"}
	o := New(store.NewMemory(), persona.NewRegistry(""), completer, Options{})
	for _, req := range []Request{
		{CompanyID: "c", Prompt: "p"},
		{UserID: "u", Prompt: "p"},
		{UserID: "u", CompanyID: "c"},
	} {
		_, err := o.Handle(context.Background(), req)
		if !errors.Is(err, ErrInvalidRequest) || !errdefs.IsInvalidArgument(err) {
			t.Errorf("Handle(%+v) error = %v, want ErrInvalidRequest", req, err)
		}
	}
	if completer.calls != 0 {
		t.Errorf("completion called for invalid requests")
	}

	// An empty prompt is reported before missing identifiers.
	_, err := o.Handle(context.Background(), Request{})
	if err == nil || !strings.Contains(err.Error(), "prompt cannot be empty") {
		t.Errorf("Handle(empty request) error = %v, want prompt error", err)
	}
}

type brokenRepo struct {
	*store.MemoryStore
}

var errStore = errors.New("store unavailable")

func (brokenRepo) GetUserProfile(context.Context, string) (*domain.UserProfile, error) {
	return nil, errStore
}

func TestHandlePropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "ok"}
	o := New(brokenRepo{store.NewMemory()}, persona.NewRegistry(""), completer, Options{})
	_, err := o.Handle(context.Background(), Request{UserID: "u", CompanyID: "c", Prompt: "p"})
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if errors.Is(err, ErrNoReply) {
		t.Error("store failure must not be reported as no reply")
	}
	if completer.calls != 0 {
		t.Error("completion called after aggregation failure")
	}
}
