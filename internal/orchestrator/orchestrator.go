// Package orchestrator runs the request pipeline: aggregate context, select a
// persona, compose the prompt, complete it and record the exchange.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/aggregate"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/completion"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/convlog"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/prompt"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
	"github.com/containerd/errdefs"
	"github.com/google/uuid"
)

var (
	// ErrNoReply means the completion service produced nothing; history is untouched.
	ErrNoReply = fmt.Errorf("assistant produced no reply: %w", errdefs.ErrUnavailable)
	// ErrInvalidRequest is returned when a required request field is empty.
	ErrInvalidRequest = fmt.Errorf("invalid chat request: %w", errdefs.ErrInvalidArgument)
)

// Request is one user message to route.
type Request struct {
	UserID                 string
	CompanyID              string
	Prompt                 string
	ModuleAccessed         string
	CurrentInteractionData map[string]any
	// Channel names the transport for logging ("http", "ws", "grpc").
	Channel string
}

// Reply is the generated answer and the persona that produced it.
type Reply struct {
	ExchangeID string
	Text       string
	Persona    persona.Persona
}

// Options tunes an Orchestrator.
type Options struct {
	HistoryLimit    int
	ConversationLog convlog.Logger
	Logger          *slog.Logger
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	repo       store.Repository
	aggregator *aggregate.Aggregator
	registry   *persona.Registry
	completer  completion.Completer
	convLog    convlog.Logger
	logger     *slog.Logger
}

// New creates an Orchestrator over the given store, catalog and completion service.
func New(repo store.Repository, registry *persona.Registry, completer completion.Completer, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	convLog := opts.ConversationLog
	if convLog == nil {
		convLog = convlog.Noop{}
	}
	return &Orchestrator{
		repo:       repo,
		aggregator: aggregate.New(repo, opts.HistoryLimit, logger),
		registry:   registry,
		completer:  completer,
		convLog:    convLog,
		logger:     logger,
	}
}

// Handle routes one request. A completion failure returns an error wrapping
// ErrNoReply and leaves history unchanged; store and catalog errors are
// returned as they are.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Reply, error) {
	if err := validate(req); err != nil {
		return Reply{}, err
	}

	full, err := o.aggregator.Aggregate(ctx, aggregate.Request{
		UserID:                 req.UserID,
		CompanyID:              req.CompanyID,
		ModuleAccessed:         req.ModuleAccessed,
		CurrentInteractionData: req.CurrentInteractionData,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("aggregate context: %w", err)
	}

	selected := persona.Select(full)
	p, err := o.registry.Lookup(selected)
	if err != nil {
		return Reply{}, fmt.Errorf("select persona: %w", err)
	}
	o.logger.Info("Persona selected",
		"user_id", req.UserID,
		"company_id", req.CompanyID,
		"module_accessed", req.ModuleAccessed,
		"user_role", full.UserProfile.Role,
		"persona", p.ID,
	)

	messages := prompt.Compose(p, full.InteractionHistory, full.AgentContext(), req.Prompt)

	exchangeID := uuid.NewString()
	o.logEvent(req, p, exchangeID, "user_message", req.Prompt, nil)

	start := time.Now()
	text, err := o.completer.Complete(ctx, messages, p.ModelID)
	if err == nil && text == "" {
		err = completion.ErrEmptyReply
	}
	if err != nil {
		o.logger.Warn("Completion failed",
			"user_id", req.UserID,
			"company_id", req.CompanyID,
			"persona", p.ID,
			"model", p.ModelID,
			"error", err,
		)
		o.logEvent(req, p, exchangeID, "completion_failed", "", map[string]any{"error": err.Error()})
		return Reply{}, fmt.Errorf("%w: %w", ErrNoReply, err)
	}

	// The reply exists; record it even if the caller has gone away.
	if err := o.repo.AppendTurnPair(context.WithoutCancel(ctx), req.UserID, req.CompanyID, req.Prompt, text); err != nil {
		return Reply{}, fmt.Errorf("record exchange: %w", err)
	}

	o.logger.Info("Assistant replied",
		"user_id", req.UserID,
		"company_id", req.CompanyID,
		"persona", p.ID,
		"model", p.ModelID,
		"reply_length", len(text),
		"duration", time.Since(start),
	)
	o.logEvent(req, p, exchangeID, "assistant_message", text, map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return Reply{ExchangeID: exchangeID, Text: text, Persona: p}, nil
}

// Personas lists the catalog used for selection.
func (o *Orchestrator) Personas() []persona.Persona {
	return o.registry.All()
}

func (o *Orchestrator) logEvent(req Request, p persona.Persona, exchangeID, eventType, content string, meta map[string]any) {
	o.convLog.Log(convlog.Event{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		ExchangeID: exchangeID,
		UserID:     req.UserID,
		CompanyID:  req.CompanyID,
		Channel:    req.Channel,
		EventType:  eventType,
		Persona:    string(p.ID),
		Model:      p.ModelID,
		ContentRaw: content,
		Meta:       meta,
	})
}

func validate(req Request) error {
	switch {
	case req.Prompt == "":
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidRequest)
	case req.UserID == "" || req.CompanyID == "":
		return fmt.Errorf("%w: user_id and company_id are required", ErrInvalidRequest)
	}
	return nil
}
