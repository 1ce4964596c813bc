// Package worker drains the async turn queue. Each worker serializes
// sessions across processes with a Redis lock, runs the turn engine,
// and publishes progress events for SSE clients.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/services/events"
	queuesvc "github.com/jwebster45206/adventure-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/adventure-engine/pkg/queue"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const (
	// dequeueTimeout bounds each blocking pop so shutdown is noticed.
	dequeueTimeout = 5 * time.Second

	// sessionLockTTL caps how long a crashed worker can hold a session.
	sessionLockTTL = 30 * time.Second
)

// Worker pulls turn requests off the global queue and runs them.
type Worker struct {
	id          string
	queue       *queuesvc.TurnQueue
	processor   *engine.TurnProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc

	// currentRequestID tags observer events for the request in flight.
	// A worker processes one request at a time.
	currentRequestID string
}

// New creates a worker. An empty workerID gets a generated one.
func New(turnQueue *queuesvc.TurnQueue, processor *engine.TurnProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	w := &Worker{
		id:          workerID,
		queue:       turnQueue,
		processor:   processor,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
	processor.WithObserver(w)
	return w
}

// Start begins processing requests from the queue. It returns only on
// Stop.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNext(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNext pulls the next request from the queue and processes it.
func (w *Worker) processNext() error {
	ctx, cancel := context.WithTimeout(w.ctx, dequeueTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, dequeueTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Queue is empty, normal idle tick.
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"session_id", req.SessionID.String(),
	)

	locked, err := w.acquireSessionLock(req.SessionID)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		// Another worker holds this session. Re-queue at the end and
		// move on.
		w.log.Info("Session already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}
	defer w.releaseSessionLock(req.SessionID)

	return w.processRequest(req)
}

// acquireSessionLock attempts to take the cross-process lock for one
// session. Returns false when another worker holds it.
func (w *Worker) acquireSessionLock(sessionID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())
	return w.redisClient.SetNX(w.ctx, lockKey, w.id, sessionLockTTL).Result()
}

// releaseSessionLock releases the session lock, but only if this worker
// still owns it.
func (w *Worker) releaseSessionLock(sessionID uuid.UUID) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())

	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release session lock", "error", err, "session_id", sessionID.String())
	}
}

// processRequest runs a single queued request through the engine.
func (w *Worker) processRequest(req *queuePkg.Request) error {
	start := time.Now()

	switch req.Type {
	case queuePkg.RequestTypeTurn:
		return w.processTurn(req, start)
	case queuePkg.RequestTypeStoryEvent:
		return w.processStoryEvent(req)
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
}

func (w *Worker) processTurn(req *queuePkg.Request, start time.Time) error {
	if err := w.broadcaster.PublishTurnProcessing(w.ctx, req.SessionID, req.RequestID, req.Action); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Don't fail the request just because event publishing failed
	}

	w.currentRequestID = req.RequestID
	resp, err := w.processor.ProcessTurn(w.ctx, req.TurnRequest())
	w.currentRequestID = ""
	if err != nil {
		w.log.Error("Turn processing failed",
			"error", err,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if pubErr := w.broadcaster.PublishTurnFailed(w.ctx, req.SessionID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process turn: %w", err)
	}

	w.log.Info("Turn processed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"session_id", req.SessionID.String(),
		"voices", len(resp.Outputs),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]interface{}{
		"response":    resp,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err := w.broadcaster.PublishTurnCompleted(w.ctx, req.SessionID, req.RequestID, result); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	if err := w.broadcaster.PublishSessionUpdated(w.ctx, req.SessionID, resp.Phase, resp.TurnCount, resp.AdventureTurn); err != nil {
		w.log.Error("Failed to publish session update", "error", err)
	}
	return nil
}

// processStoryEvent queues a narrative beat for the session. The engine
// drains the list and injects the beats into the next turn's prompts.
func (w *Worker) processStoryEvent(req *queuePkg.Request) error {
	if req.EventPrompt == "" {
		w.log.Warn("Story event request with empty prompt, dropping", "request_id", req.RequestID)
		return nil
	}
	if err := w.queue.EnqueueStoryEvent(w.ctx, req.SessionID, req.EventPrompt); err != nil {
		return fmt.Errorf("failed to queue story event: %w", err)
	}
	w.log.Info("Story event queued for next turn",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"session_id", req.SessionID.String(),
	)
	return nil
}

// VoiceStarted implements engine.Observer.
func (w *Worker) VoiceStarted(ctx context.Context, sessionID uuid.UUID, voiceID string) {
	if err := w.broadcaster.PublishVoiceStarted(ctx, sessionID, w.currentRequestID, voiceID); err != nil {
		w.log.Error("Failed to publish voice started event", "error", err, "voice", voiceID)
	}
}

// VoiceCompleted implements engine.Observer.
func (w *Worker) VoiceCompleted(ctx context.Context, sessionID uuid.UUID, out turn.VoiceOutput) {
	if err := w.broadcaster.PublishVoiceCompleted(ctx, sessionID, w.currentRequestID, out.VoiceID, out.Text, out.Fallback); err != nil {
		w.log.Error("Failed to publish voice completed event", "error", err, "voice", out.VoiceID)
	}
}
