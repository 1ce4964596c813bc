package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/queue"
)

// requestsKey is the global list every worker pulls turn requests from.
const requestsKey = "turn-requests"

// TurnQueue manages the global turn-request list and per-session story
// event lists
type TurnQueue struct {
	client *Client
}

func NewTurnQueue(client *Client) *TurnQueue {
	return &TurnQueue{
		client: client,
	}
}

func eventsKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("events:%s", sessionID.String())
}

// Enqueue adds a request to the end of the global turn queue
func (q *TurnQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, requestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next request from the global queue
// Returns nil if queue is empty
func (q *TurnQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, requestsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// BlockingDequeue blocks until a request is available or the timeout
// lapses. Returns nil on timeout.
func (q *TurnQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, requestsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Timed out with nothing queued
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// Depth returns the number of requests in the global queue
func (q *TurnQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all requests from the global queue
func (q *TurnQueue) Clear(ctx context.Context) error {
	if err := q.client.rdb.Del(ctx, requestsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear request queue: %w", err)
	}
	return nil
}

// EnqueueStoryEvent adds a story event prompt to the end of the queue
// for a session
func (q *TurnQueue) EnqueueStoryEvent(ctx context.Context, sessionID uuid.UUID, eventPrompt string) error {
	key := eventsKey(sessionID)
	if err := q.client.rdb.RPush(ctx, key, eventPrompt).Err(); err != nil {
		return fmt.Errorf("failed to enqueue story event: %w", err)
	}
	return nil
}

// DequeueStoryEvents removes and returns all queued story events for a
// session
func (q *TurnQueue) DequeueStoryEvents(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	key := eventsKey(sessionID)

	events, err := q.client.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to dequeue story events: %w", err)
	}
	if len(events) > 0 {
		if err := q.client.rdb.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to clear story event queue after dequeue: %w", err)
		}
	}
	return events, nil
}

// PeekStoryEvents returns queued story events without removing them
func (q *TurnQueue) PeekStoryEvents(ctx context.Context, sessionID uuid.UUID, limit int) ([]string, error) {
	key := eventsKey(sessionID)

	end := int64(limit - 1)
	if limit <= 0 {
		end = -1 // Get all
	}
	events, err := q.client.rdb.LRange(ctx, key, 0, end).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to peek story events: %w", err)
	}
	return events, nil
}

// ClearStoryEvents removes all story events for a session
func (q *TurnQueue) ClearStoryEvents(ctx context.Context, sessionID uuid.UUID) error {
	key := eventsKey(sessionID)
	if err := q.client.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear story event queue: %w", err)
	}
	return nil
}

// StoryEventDepth returns the number of story events queued for a session
func (q *TurnQueue) StoryEventDepth(ctx context.Context, sessionID uuid.UUID) (int, error) {
	key := eventsKey(sessionID)
	count, err := q.client.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get story event queue depth: %w", err)
	}
	return int(count), nil
}

// FormattedStoryEvents returns all queued story events joined into a
// single prompt block
func (q *TurnQueue) FormattedStoryEvents(ctx context.Context, sessionID uuid.UUID) (string, error) {
	events, err := q.PeekStoryEvents(ctx, sessionID, 0)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}

	var formatted string
	for i, event := range events {
		if i == 0 {
			formatted = "STORY EVENT: " + event
		} else {
			formatted += "\n\nSTORY EVENT: " + event
		}
	}
	return formatted, nil
}
