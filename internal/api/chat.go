package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/completion"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// InteractiveChatRequest is the body of POST /v1/chat/interactive.
type InteractiveChatRequest struct {
	UserID                 string         `json:"user_id"`
	CompanyID              string         `json:"company_id"`
	Prompt                 string         `json:"prompt"`
	ModuleAccessed         *string        `json:"module_accessed,omitempty"`
	CurrentInteractionData map[string]any `json:"current_interaction_data,omitempty"`
}

// InteractiveChatResponse is the reply to an interactive chat request.
type InteractiveChatResponse struct {
	UserPrompt        string `json:"user_prompt"`
	AssistantResponse string `json:"assistant_response"`
	PersonaUsed       string `json:"persona_used,omitempty"`
	ExchangeID        string `json:"exchange_id,omitempty"`
}

// ToOrchestratorRequest converts the wire request.
func (r InteractiveChatRequest) ToOrchestratorRequest(channel string) orchestrator.Request {
	req := orchestrator.Request{
		UserID:                 r.UserID,
		CompanyID:              r.CompanyID,
		Prompt:                 r.Prompt,
		CurrentInteractionData: r.CurrentInteractionData,
		Channel:                channel,
	}
	if r.ModuleAccessed != nil {
		req.ModuleAccessed = *r.ModuleAccessed
	}
	return req
}

// NewInteractiveChatResponse builds the wire reply.
func NewInteractiveChatResponse(prompt string, reply orchestrator.Reply) InteractiveChatResponse {
	return InteractiveChatResponse{
		UserPrompt:        prompt,
		AssistantResponse: reply.Text,
		PersonaUsed:       reply.Persona.DisplayName,
		ExchangeID:        reply.ExchangeID,
	}
}

// ChatErrorMessage is the client-facing text for a failed chat request.
func ChatErrorMessage(err error) string {
	if errors.Is(err, orchestrator.ErrNoReply) {
		return "Failed to get a response from the assistant. The LLM or orchestrator might have encountered an issue."
	}
	if errors.Is(err, orchestrator.ErrInvalidRequest) {
		return err.Error()
	}
	return "An unexpected error occurred"
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "context store unreachable"})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "NowGo-LLM API is healthy"})
}

// HandleInteractiveChat handles POST /v1/chat/interactive.
func (h *Handler) HandleInteractiveChat(w http.ResponseWriter, r *http.Request) {
	var req InteractiveChatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.chat.Handle(r.Context(), req.ToOrchestratorRequest("http"))
	if err != nil {
		slog.Error("Interactive chat failed",
			"user_id", req.UserID,
			"company_id", req.CompanyID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err,
		)
		Error(w, StatusFor(err), ChatErrorMessage(err))
		return
	}

	JSON(w, http.StatusOK, NewInteractiveChatResponse(req.Prompt, reply))
}

// HandleCompletionProbe handles GET /test_openai/.
func (h *Handler) HandleCompletionProbe(w http.ResponseWriter, r *http.Request) {
	reply, err := completion.Probe(r.Context(), h.completer, h.defaultModel)
	if err != nil {
		slog.Warn("Completion probe failed", "error", err)
		Error(w, http.StatusServiceUnavailable, "Completion service connection test failed. Check API key and logs.")
		return
	}
	slog.Info("Completion probe succeeded", "reply_preview", preview(reply, 100))
	JSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Completion service connection test successful."})
}

// HandleListPersonas handles GET /v1/personas.
func (h *Handler) HandleListPersonas(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"personas": h.chat.Personas()})
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
