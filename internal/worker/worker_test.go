package worker

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/services"
	queuesvc "github.com/jwebster45206/adventure-engine/internal/services/queue"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	queuePkg "github.com/jwebster45206/adventure-engine/pkg/queue"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

type workerFixture struct {
	worker *Worker
	queue  *queuesvc.TurnQueue
	store  *storage.Mock
	voices *services.MockVoiceService
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client, err := queuesvc.NewClient(mr.Addr(), "", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMock()
	voices := services.NewMockVoiceService()
	roller := dice.NewRoller(dice.NewSource(1))
	processor := engine.NewTurnProcessor(store, voices, voice.DefaultRoster(), voice.NewRouter(roller), roller, logger)

	turnQueue := queuesvc.NewTurnQueue(client)
	w := New(turnQueue, processor, client.Redis(), logger, "test-worker")
	t.Cleanup(w.Stop)

	return &workerFixture{worker: w, queue: turnQueue, store: store, voices: voices}
}

func exploringSession(t *testing.T, store *storage.Mock) *session.Session {
	t.Helper()
	sess := session.New(50)
	require.NoError(t, sess.SetPhase(session.PhaseExploration))
	require.NoError(t, store.SaveSession(context.Background(), sess))
	return sess
}

func TestWorker_ProcessesQueuedTurn(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	sess := exploringSession(t, f.store)
	f.voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The road bends east.", ContentSafe: true})

	req := queuePkg.NewTurnRequest(turn.Request{SessionID: sess.ID, Action: "I follow the road"})
	require.NoError(t, f.queue.Enqueue(ctx, req))

	require.NoError(t, f.worker.processNext())

	depth, err := f.queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, depth, "request should be consumed")

	saved, err := f.store.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TurnCount)
}

func TestWorker_RequeuesLockedSession(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	sess := exploringSession(t, f.store)

	// Another worker holds the session.
	held, err := f.worker.redisClient.SetNX(ctx, "session-lock:"+sess.ID.String(), "other-worker", sessionLockTTL).Result()
	require.NoError(t, err)
	require.True(t, held)

	req := queuePkg.NewTurnRequest(turn.Request{SessionID: sess.ID, Action: "I wait"})
	require.NoError(t, f.queue.Enqueue(ctx, req))

	require.NoError(t, f.worker.processNext())

	depth, err := f.queue.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth, "contended request goes back on the queue")

	saved, err := f.store.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.TurnCount, "contended turn must not run")
}

func TestWorker_FailedTurnReportsError(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()

	// No session saved: the engine rejects the turn.
	req := queuePkg.NewTurnRequest(turn.Request{SessionID: session.New(50).ID, Action: "hello?"})
	require.NoError(t, f.queue.Enqueue(ctx, req))

	err := f.worker.processNext()
	require.Error(t, err)

	depth, derr := f.queue.Depth(ctx)
	require.NoError(t, derr)
	assert.Equal(t, 0, depth, "failed request is not retried")
}

func TestWorker_StoryEventLandsOnSessionList(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	sess := exploringSession(t, f.store)

	req := &queuePkg.Request{
		RequestID:   "evt-1",
		Type:        queuePkg.RequestTypeStoryEvent,
		SessionID:   sess.ID,
		EventPrompt: "A storm rolls in from the coast.",
	}
	require.NoError(t, f.queue.Enqueue(ctx, req))

	require.NoError(t, f.worker.processNext())

	beats, err := f.queue.PeekStoryEvents(ctx, sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "A storm rolls in from the coast.", beats[0])
}

func TestWorker_ReleasesLockAfterTurn(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	sess := exploringSession(t, f.store)
	f.voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Onward.", ContentSafe: true})

	req := queuePkg.NewTurnRequest(turn.Request{SessionID: sess.ID, Action: "I keep walking"})
	require.NoError(t, f.queue.Enqueue(ctx, req))
	require.NoError(t, f.worker.processNext())

	// The lock must be free for the next worker.
	held, err := f.worker.redisClient.SetNX(ctx, "session-lock:"+sess.ID.String(), "other-worker", sessionLockTTL).Result()
	require.NoError(t, err)
	assert.True(t, held)
}
