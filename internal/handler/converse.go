package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayushma-ai/assistant-platform/internal/middleware"
	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/internal/service"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
	"github.com/ayushma-ai/assistant-platform/pkg/metrics"
)

// ConverseHandler handles the converse endpoint: it accepts a user
// utterance and streams the assistant's reply as server-sent events, or
// returns the single persisted turn when streaming is disabled.
type ConverseHandler struct {
	turns         *service.TurnService
	conversations *service.ConversationService
	logger        *logger.Logger
}

// NewConverseHandler creates a new converse handler.
func NewConverseHandler(turns *service.TurnService, conversations *service.ConversationService, log *logger.Logger) *ConverseHandler {
	return &ConverseHandler{
		turns:         turns,
		conversations: conversations,
		logger:        log,
	}
}

// Converse handles POST /api/v1/conversations/{id}/converse
func (h *ConverseHandler) Converse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.conversations.Get(ctx, tenantID, conversationID); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req model.ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUtterance(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.WantsStream() {
		turn, err := h.turns.Converse(ctx, tenantID, conversationID, &req, nil)
		if err != nil {
			h.logger.Error("converse failed", "error", err, "conversation_id", conversationID)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, turn)
		return
	}

	// SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	_, err := h.turns.Converse(ctx, tenantID, conversationID, &req, func(event model.StreamEvent) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendEvent(w, flusher, event)
	})
	if err != nil {
		// Failures before the assistant turn exists (retrieval, history,
		// user-turn persistence) have produced no events yet; surface
		// them as the stream's only terminal event.
		h.logger.Error("converse failed before streaming", "error", err, "conversation_id", conversationID)
		sendEvent(w, flusher, model.ErrorEvent(conversationID, req.Text, err.Error()))
	}
}

// sendEvent writes one line-delimited stream event terminated by a blank
// line.
func sendEvent(w http.ResponseWriter, flusher http.Flusher, event model.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
