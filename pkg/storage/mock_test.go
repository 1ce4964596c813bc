package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func TestMock_SaveAndLoadSession(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	s := session.New(50)
	s.Phase = session.PhaseExploration

	if err := m.SaveSession(ctx, s); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := m.LoadSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil session")
	}
	if loaded.ID != s.ID {
		t.Errorf("Expected ID %v, got %v", s.ID, loaded.ID)
	}
	if loaded.Phase != session.PhaseExploration {
		t.Errorf("Expected exploration phase, got %v", loaded.Phase)
	}

	if err := m.SaveSession(ctx, nil); err == nil {
		t.Error("Expected error saving nil session")
	}
}

func TestMock_LoadNonExistentSession(t *testing.T) {
	m := NewMock()

	loaded, err := m.LoadSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing session, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing session")
	}
}

func TestMock_DeleteSession(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	s := session.New(50)
	if err := m.SaveSession(ctx, s); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := m.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	loaded, err := m.LoadSession(ctx, s.ID)
	if err != nil || loaded != nil {
		t.Errorf("Expected session gone, got %v / %v", loaded, err)
	}
}

func TestMock_ErrorInjection(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	pingErr := errors.New("redis down")
	m.SetPingError(pingErr)
	if err := m.Ping(ctx); !errors.Is(err, pingErr) {
		t.Errorf("Expected injected ping error, got %v", err)
	}
	m.SetPingError(nil)
	if err := m.Ping(ctx); err != nil {
		t.Errorf("Expected ping success after reset, got %v", err)
	}

	saveErr := errors.New("write refused")
	m.SetSaveError(saveErr)
	if err := m.SaveSession(ctx, session.New(50)); !errors.Is(err, saveErr) {
		t.Errorf("Expected injected save error, got %v", err)
	}

	loadErr := errors.New("read refused")
	m.SetLoadError(loadErr)
	if _, err := m.LoadSession(ctx, uuid.New()); !errors.Is(err, loadErr) {
		t.Errorf("Expected injected load error, got %v", err)
	}
}

func TestMock_Content(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	m.AddQuest(&quest.Quest{ID: "wolves", Title: "Wolves of the Vale"})
	m.AddPersona(&voice.Persona{ID: "narrator", Name: "The Narrator"})
	m.AddEnemy(&quest.EnemyTemplate{ID: "wolf", Name: "Gray Wolf", HP: 9})

	quests, err := m.ListQuests(ctx)
	if err != nil || len(quests) != 1 {
		t.Errorf("Expected 1 quest, got %d (%v)", len(quests), err)
	}
	if q, err := m.GetQuest(ctx, "wolves"); err != nil || q.Title != "Wolves of the Vale" {
		t.Errorf("GetQuest failed: %v", err)
	}
	if _, err := m.GetQuest(ctx, "ghost"); err == nil {
		t.Error("Expected error for unknown quest")
	}

	personas, err := m.ListPersonas(ctx)
	if err != nil || len(personas) != 1 {
		t.Errorf("Expected 1 persona, got %d (%v)", len(personas), err)
	}

	if e, err := m.GetEnemy(ctx, "wolf"); err != nil || e.HP != 9 {
		t.Errorf("GetEnemy failed: %v", err)
	}
	if _, err := m.GetEnemy(ctx, "dragon"); err == nil {
		t.Error("Expected error for unknown enemy")
	}
}
