package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

// SessionHandler manages session lifecycle.
// Routes:
// POST /v1/sessions         - Create a new session
// GET /v1/sessions/{id}     - Read a session by ID
// DELETE /v1/sessions/{id}  - Delete a session by ID
type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

// CreateSessionRequest is the optional body for session creation. Zero
// values take the defaults: a 50-turn budget and a PG13 rating.
type CreateSessionRequest struct {
	MaxTurns int    `json:"max_turns,omitempty"`
	Rating   string `json:"rating,omitempty"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions")
	var sessionID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		sessionID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		if sessionID != uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "POST does not take a session ID")
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		if sessionID == uuid.Nil {
			h.logger.Warn("GET request without session ID")
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for GET requests")
			return
		}
		h.handleRead(w, r, sessionID)

	case http.MethodDelete:
		if sessionID == uuid.Nil {
			h.logger.Warn("DELETE request without session ID")
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, sessionID)

	default:
		h.logger.Warn("Method not allowed for sessions endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}

	if req.MaxTurns < 0 {
		writeError(w, h.logger, http.StatusBadRequest, "max_turns cannot be negative")
		return
	}
	if req.Rating != "" && !session.ValidRating(req.Rating) {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown rating. Supported ratings: G, PG, PG13, R")
		return
	}

	sess := session.New(req.MaxTurns)
	if req.Rating != "" {
		sess.Rating = req.Rating
	}

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created", "id", sess.ID.String(), "max_turns", sess.MaxTurns, "rating", sess.Rating)
	writeJSON(w, h.logger, http.StatusCreated, sess)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	sess, err := h.storage.LoadSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sess == nil {
		h.logger.Warn("Session not found", "id", sessionID.String())
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sess)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}
