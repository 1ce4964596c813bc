package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeTurn is a player-initiated turn
	RequestTypeTurn RequestType = "turn"

	// RequestTypeStoryEvent is a system-generated story event
	RequestTypeStoryEvent RequestType = "story_event"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`

	// Turn-specific fields
	Action string         `json:"action,omitempty"`
	Choice *int           `json:"choice_index,omitempty"`
	Combat *combat.Action `json:"combat_action,omitempty"`

	// Story event-specific fields
	EventPrompt string `json:"event_prompt,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTurnRequest wraps a validated turn request for queuing.
func NewTurnRequest(tr turn.Request) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeTurn,
		SessionID:  tr.SessionID,
		Action:     tr.Action,
		Choice:     tr.Choice,
		Combat:     tr.Combat,
		EnqueuedAt: time.Now().UTC(),
	}
}

// TurnRequest converts the queued request back to the engine's form.
func (r *Request) TurnRequest() turn.Request {
	return turn.Request{
		SessionID: r.SessionID,
		Action:    r.Action,
		Choice:    r.Choice,
		Combat:    r.Combat,
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
