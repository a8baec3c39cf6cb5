// Package api provides HTTP handlers for the NowGo-LLM API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/completion"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
	"github.com/containerd/errdefs/pkg/errhttp"
	"github.com/go-chi/chi/v5"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Chatter runs chat requests through the orchestration pipeline.
type Chatter interface {
	Handle(ctx context.Context, req orchestrator.Request) (orchestrator.Reply, error)
	Personas() []persona.Persona
}

// HandlerConfig holds the transport settings of a Handler.
type HandlerConfig struct {
	DefaultModel   string
	MaxBodySize    int64
	AllowedOrigins []string
}

// Handler serves the chat, persona, profile and history endpoints.
type Handler struct {
	chat           Chatter
	repo           store.Repository
	completer      completion.Completer
	defaultModel   string
	maxBodySize    int64
	originPatterns []string
}

// NewHandler creates a new Handler.
func NewHandler(chat Chatter, repo store.Repository, completer completion.Completer, cfg HandlerConfig) *Handler {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxRequestBodySize
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = persona.DefaultModel
	}
	return &Handler{
		chat:           chat,
		repo:           repo,
		completer:      completer,
		defaultModel:   cfg.DefaultModel,
		maxBodySize:    cfg.MaxBodySize,
		originPatterns: originPatterns(cfg.AllowedOrigins),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/test_openai/", h.HandleCompletionProbe)
	r.Get("/ws/chat", h.HandleChatSocket)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat/interactive", h.HandleInteractiveChat)
		r.Get("/personas", h.HandleListPersonas)

		r.Get("/users/{userID}/profile", h.HandleGetUserProfile)
		r.Put("/users/{userID}/profile", h.HandlePutUserProfile)
		r.Get("/companies/{companyID}/profile", h.HandleGetCompanyProfile)
		r.Put("/companies/{companyID}/profile", h.HandlePutCompanyProfile)

		r.Get("/history/{userID}/{companyID}", h.HandleGetHistory)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, orchestrator.ErrNoReply) {
		return http.StatusInternalServerError
	}
	return errhttp.ToHTTP(err)
}

// decodeJSON reads a size-limited JSON body into v.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
