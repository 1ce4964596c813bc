package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

// QuestsHandler lists the quest catalog.
// GET /v1/quests
type QuestsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewQuestsHandler(storage storage.Storage, logger *slog.Logger) *QuestsHandler {
	return &QuestsHandler{storage: storage, logger: logger}
}

func (h *QuestsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	quests, err := h.storage.ListQuests(r.Context())
	if err != nil {
		h.logger.Error("Failed to list quests", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list quests")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, quests)
}

// PersonasHandler lists the voice personas in the roster.
// GET /v1/personas
type PersonasHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewPersonasHandler(storage storage.Storage, logger *slog.Logger) *PersonasHandler {
	return &PersonasHandler{storage: storage, logger: logger}
}

func (h *PersonasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	personas, err := h.storage.ListPersonas(r.Context())
	if err != nil {
		h.logger.Error("Failed to list personas", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list personas")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, personas)
}
