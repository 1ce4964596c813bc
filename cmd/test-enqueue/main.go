// Command test-enqueue pushes sample requests onto the turn queue for
// exercising a running worker against a local Redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/queue"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	sessionID := flag.String("session", "", "session UUID to target (required)")
	action := flag.String("action", "I look around.", "player action to enqueue")
	event := flag.String("event", "", "optional story event to enqueue after the turn")
	flag.Parse()

	if *sessionID == "" {
		log.Fatal("-session is required")
	}
	id, err := uuid.Parse(*sessionID)
	if err != nil {
		log.Fatal("Invalid session UUID: ", err)
	}

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	fmt.Println("Connected to Redis")

	turnReq := queue.NewTurnRequest(turn.Request{
		SessionID: id,
		Action:    *action,
	})
	if err := enqueue(ctx, client, turnReq); err != nil {
		log.Fatal("Failed to enqueue turn request: ", err)
	}
	fmt.Printf("Enqueued turn request %s (%q)\n", turnReq.RequestID, *action)

	if *event != "" {
		eventReq := &queue.Request{
			RequestID:   uuid.NewString(),
			Type:        queue.RequestTypeStoryEvent,
			SessionID:   id,
			EventPrompt: *event,
			EnqueuedAt:  time.Now().UTC(),
		}
		if err := enqueue(ctx, client, eventReq); err != nil {
			log.Fatal("Failed to enqueue story event: ", err)
		}
		fmt.Printf("Enqueued story event %s\n", eventReq.RequestID)
	}

	depth, err := client.LLen(ctx, "turn-requests").Result()
	if err != nil {
		log.Fatal("Failed to read queue depth: ", err)
	}
	fmt.Printf("Queue depth: %d\n", depth)
}

func enqueue(ctx context.Context, client *redis.Client, req *queue.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return client.RPush(ctx, "turn-requests", data).Err()
}
