package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func TestQuestsHandler_List(t *testing.T) {
	store := storage.NewMock()
	store.AddQuest(&quest.Quest{ID: "wolves", Title: "The Wolves of Harrow Vale"})
	store.AddQuest(&quest.Quest{ID: "lighthouse", Title: "The Dark Lighthouse"})
	handler := NewQuestsHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/quests", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var quests []*quest.Quest
	require.NoError(t, json.NewDecoder(w.Body).Decode(&quests))
	assert.Len(t, quests, 2)
}

func TestQuestsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewQuestsHandler(storage.NewMock(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/quests", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPersonasHandler_List(t *testing.T) {
	store := storage.NewMock()
	store.AddPersona(&voice.Persona{ID: voice.Narrator, Name: "The Narrator"})
	handler := NewPersonasHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/personas", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var personas []*voice.Persona
	require.NoError(t, json.NewDecoder(w.Body).Decode(&personas))
	require.Len(t, personas, 1)
	assert.Equal(t, voice.Narrator, personas[0].ID)
}
