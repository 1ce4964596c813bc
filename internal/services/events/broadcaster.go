// Package events publishes turn-progress events over Redis pub/sub.
// Each session has its own channel; the SSE handler bridges subscribed
// clients to it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Type enumerates the events a turn emits as it moves through the
// system.
type Type string

const (
	TypeTurnQueued     Type = "turn.queued"
	TypeTurnProcessing Type = "turn.processing"
	TypeVoiceStarted   Type = "voice.started"
	TypeVoiceCompleted Type = "voice.completed"
	TypeTurnCompleted  Type = "turn.completed"
	TypeTurnFailed     Type = "turn.failed"
	TypeSessionUpdated Type = "session.updated"
)

// Event is the wire form published to the session channel.
type Event struct {
	Type      Type                   `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Channel returns the pub/sub channel name for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis pub/sub for SSE distribution.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishTurnQueued announces a request accepted onto the async queue.
func (b *Broadcaster) PublishTurnQueued(ctx context.Context, sessionID uuid.UUID, requestID string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeTurnQueued,
		RequestID: requestID,
		Data:      map[string]interface{}{"status": "queued"},
	})
}

// PublishTurnProcessing announces a worker picking the request up.
func (b *Broadcaster) PublishTurnProcessing(ctx context.Context, sessionID uuid.UUID, requestID, action string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeTurnProcessing,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "processing",
			"action": action,
		},
	})
}

// PublishVoiceStarted announces one voice beginning its contribution.
func (b *Broadcaster) PublishVoiceStarted(ctx context.Context, sessionID uuid.UUID, requestID, voiceID string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeVoiceStarted,
		RequestID: requestID,
		Data:      map[string]interface{}{"voice_id": voiceID},
	})
}

// PublishVoiceCompleted carries one voice's finished text. Fallback
// marks a scripted line substituted for a failed generation.
func (b *Broadcaster) PublishVoiceCompleted(ctx context.Context, sessionID uuid.UUID, requestID, voiceID, text string, fallback bool) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeVoiceCompleted,
		RequestID: requestID,
		Data: map[string]interface{}{
			"voice_id": voiceID,
			"text":     text,
			"fallback": fallback,
		},
	})
}

// PublishTurnCompleted carries the aggregated turn result.
func (b *Broadcaster) PublishTurnCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, result map[string]interface{}) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeTurnCompleted,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishTurnFailed announces a turn the engine could not complete.
func (b *Broadcaster) PublishTurnFailed(ctx context.Context, sessionID uuid.UUID, requestID, errorMsg string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      TypeTurnFailed,
		RequestID: requestID,
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// PublishSessionUpdated announces saved session state so clients can
// refresh phase and turn displays.
func (b *Broadcaster) PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, phase string, turnCount, adventureTurn int) error {
	return b.publish(ctx, sessionID, Event{
		Type: TypeSessionUpdated,
		Data: map[string]interface{}{
			"phase":          phase,
			"turn_count":     turnCount,
			"adventure_turn": adventureTurn,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
