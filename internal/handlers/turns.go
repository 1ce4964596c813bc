package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/services/events"
	queuesvc "github.com/jwebster45206/adventure-engine/internal/services/queue"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	queuePkg "github.com/jwebster45206/adventure-engine/pkg/queue"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// TurnHandler runs turns synchronously through the engine.
// POST /v1/turns
type TurnHandler struct {
	processor *engine.TurnProcessor
	logger    *slog.Logger
}

func NewTurnHandler(processor *engine.TurnProcessor, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		processor: processor,
		logger:    logger,
	}
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turns endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req turn.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.processor.ProcessTurn(r.Context(), req)
	if err != nil {
		h.writeTurnError(w, req, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// writeTurnError maps engine errors onto HTTP statuses. Phase and
// turn-order violations are conflicts; they leave the session untouched
// and the client should re-read state and retry.
func (h *TurnHandler) writeTurnError(w http.ResponseWriter, req turn.Request, err error) {
	var turnErr *combat.TurnError
	var invErr *engine.InvariantError

	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")

	case errors.Is(err, engine.ErrSessionEnded):
		writeError(w, h.logger, http.StatusConflict, "Session has ended")

	case errors.Is(err, engine.ErrCombatActionRequired):
		writeError(w, h.logger, http.StatusConflict, err.Error())

	case errors.As(err, &turnErr):
		writeError(w, h.logger, http.StatusConflict, turnErr.Error())

	case errors.Is(err, engine.ErrInvalidChoice), errors.Is(err, combat.ErrInvalidTarget):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())

	case errors.As(err, &invErr):
		h.logger.Error("Turn violated an engine invariant",
			"error", err,
			"session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Internal engine error")

	default:
		h.logger.Error("Turn processing failed",
			"error", err,
			"session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn")
	}
}

// AsyncTurnResponse acknowledges a queued turn. The result arrives on
// the session's event stream.
type AsyncTurnResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// AsyncTurnHandler accepts turns onto the Redis queue for the worker
// pool.
// POST /v1/turns/async
type AsyncTurnHandler struct {
	queue       *queuesvc.TurnQueue
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewAsyncTurnHandler(queue *queuesvc.TurnQueue, broadcaster *events.Broadcaster, logger *slog.Logger) *AsyncTurnHandler {
	return &AsyncTurnHandler{
		queue:       queue,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (h *AsyncTurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for async turns endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req turn.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	queued := queuePkg.NewTurnRequest(req)
	if err := h.queue.Enqueue(r.Context(), queued); err != nil {
		h.logger.Error("Failed to enqueue turn request",
			"error", err,
			"session_id", req.SessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue turn")
		return
	}

	if err := h.broadcaster.PublishTurnQueued(r.Context(), req.SessionID, queued.RequestID); err != nil {
		h.logger.Error("Failed to publish queued event", "error", err)
		// The request is queued; event delivery is best effort.
	}

	h.logger.Info("Turn queued",
		"request_id", queued.RequestID,
		"session_id", req.SessionID.String())
	writeJSON(w, h.logger, http.StatusAccepted, AsyncTurnResponse{
		RequestID: queued.RequestID,
		SessionID: req.SessionID.String(),
		Status:    "queued",
	})
}
