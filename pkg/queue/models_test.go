package queue

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func TestTurnRequestRoundTrip(t *testing.T) {
	tr := turn.Request{
		SessionID: uuid.New(),
		Combat:    &combat.Action{Type: combat.ActionAttack, TargetID: "wolf"},
	}

	req := NewTurnRequest(tr)
	if req.RequestID == "" {
		t.Error("expected a generated request ID")
	}
	if req.Type != RequestTypeTurn {
		t.Errorf("expected type %s, got %s", RequestTypeTurn, req.Type)
	}
	if req.EnqueuedAt.IsZero() {
		t.Error("expected enqueue timestamp")
	}

	data, err := req.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	parsed, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	got := parsed.TurnRequest()
	if got.SessionID != tr.SessionID {
		t.Errorf("session ID lost: %v", got.SessionID)
	}
	if got.Combat == nil || got.Combat.Type != combat.ActionAttack || got.Combat.TargetID != "wolf" {
		t.Errorf("combat action lost: %+v", got.Combat)
	}
	if got.Choice != nil || got.Action != "" {
		t.Errorf("unexpected intent fields: %+v", got)
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
