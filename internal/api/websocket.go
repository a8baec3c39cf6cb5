package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 10 * time.Second

// HandleChatSocket handles GET /ws/chat. Every JSON text frame is an
// InteractiveChatRequest; every reply frame is an InteractiveChatResponse
// or {"error": ...}.
func (h *Handler) HandleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Warn("WebSocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.maxBodySize)

	ctx := r.Context()
	for {
		var req InteractiveChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket read ended", "error", err)
			}
			return
		}

		var frame interface{}
		reply, err := h.chat.Handle(ctx, req.ToOrchestratorRequest("websocket"))
		if err != nil {
			slog.Error("WebSocket chat failed",
				"user_id", req.UserID,
				"company_id", req.CompanyID,
				"error", err,
			)
			frame = map[string]string{"error": ChatErrorMessage(err)}
		} else {
			frame = NewInteractiveChatResponse(req.Prompt, reply)
		}

		writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		err = wsjson.Write(writeCtx, conn, frame)
		cancel()
		if err != nil {
			slog.Warn("WebSocket write failed", "error", err)
			return
		}
	}
}

// originPatterns converts CORS origins into websocket host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
