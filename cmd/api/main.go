package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/middleware"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/services/events"
	queuesvc "github.com/jwebster45206/adventure-engine/internal/services/queue"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"voice_provider", cfg.VoiceProvider,
		"model_name", cfg.ModelName())

	var voiceService services.VoiceService
	switch strings.ToLower(cfg.VoiceProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		voiceService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
		log.Info("Using Anthropic voice provider")
	case "venice":
		if cfg.VeniceAPIKey == "" {
			log.Error("Venice API key is required when using venice provider")
			os.Exit(1)
		}
		voiceService = services.NewVeniceService(cfg.VeniceAPIKey, cfg.VeniceModel)
		log.Info("Using Venice voice provider")
	case "ollama":
		voiceService = services.NewOllamaService(cfg.OllamaURL, cfg.OllamaModel, log)
		log.Info("Using Ollama voice provider", "url", cfg.OllamaURL)
	default:
		log.Error("Invalid voice provider specified", "provider", cfg.VoiceProvider, "supported", []string{"anthropic", "venice", "ollama"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established")

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := voiceService.InitModel(initCtx, cfg.ModelName()); err != nil {
		log.Error("Failed to initialize voice model", "error", err, "model", cfg.ModelName())
		os.Exit(1)
	}

	roster := rosterFromStorage(store, log)

	queueClient, err := queuesvc.NewClient(cfg.RedisAddr, cfg.RedisPassword, log)
	if err != nil {
		log.Error("Failed to connect to queue", "error", err)
		os.Exit(1)
	}
	turnQueue := queuesvc.NewTurnQueue(queueClient)
	broadcaster := events.NewBroadcaster(queueClient.Redis(), log)

	roller := dice.NewRoller(dice.NewTimeSource())
	processor := engine.NewTurnProcessor(store, voiceService, roster, voice.NewRouter(roller), roller, log).
		WithStoryEvents(turnQueue)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, voiceService, cfg.ModelName(), log))

	sessionHandler := handlers.NewSessionHandler(store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/turns", handlers.NewTurnHandler(processor, log))
	mux.Handle("/v1/turns/async", handlers.NewAsyncTurnHandler(turnQueue, broadcaster, log))
	mux.Handle("/v1/events/", handlers.NewEventsHandler(queueClient.Redis(), log))
	mux.Handle("/v1/quests", handlers.NewQuestsHandler(store, log))
	mux.Handle("/v1/personas", handlers.NewPersonasHandler(store, log))

	handler := middleware.WithRequestID(middleware.Logger(log, mux))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset so SSE streams are not cut off.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

// rosterFromStorage builds the voice roster from the persona files in
// the data directory, falling back to the compiled-in defaults when the
// directory has none.
func rosterFromStorage(store storage.Storage, log *slog.Logger) *voice.Roster {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	personas, err := store.ListPersonas(ctx)
	if err != nil || len(personas) == 0 {
		if err != nil {
			log.Warn("Failed to load personas, using default roster", "error", err)
		}
		return voice.DefaultRoster()
	}

	roster, err := voice.NewRoster(personas...)
	if err != nil {
		log.Warn("Invalid persona set, using default roster", "error", err)
		return voice.DefaultRoster()
	}
	log.Info("Voice roster loaded", "personas", len(personas))
	return roster
}
