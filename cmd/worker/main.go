package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/services"
	queuesvc "github.com/jwebster45206/adventure-engine/internal/services/queue"
	"github.com/jwebster45206/adventure-engine/internal/worker"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine Worker",
		"environment", cfg.Environment,
		"redis_addr", cfg.RedisAddr)

	queueClient, err := queuesvc.NewClient(cfg.RedisAddr, cfg.RedisPassword, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	turnQueue := queuesvc.NewTurnQueue(queueClient)
	log.Info("Queue service initialized")

	store := storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized")

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

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := voiceService.InitModel(initCtx, cfg.ModelName()); err != nil {
		log.Error("Failed to initialize voice model", "error", err, "model", cfg.ModelName())
		os.Exit(1)
	}
	log.Info("Voice service initialized", "model", cfg.ModelName())

	roster := voice.DefaultRoster()
	if personas, err := store.ListPersonas(context.Background()); err == nil && len(personas) > 0 {
		if r, err := voice.NewRoster(personas...); err == nil {
			roster = r
			log.Info("Voice roster loaded", "personas", len(personas))
		}
	}

	roller := dice.NewRoller(dice.NewTimeSource())
	processor := engine.NewTurnProcessor(store, voiceService, roster, voice.NewRouter(roller), roller, log).
		WithStoryEvents(turnQueue)

	w := worker.New(turnQueue, processor, queueClient.Redis(), log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for requests...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give the worker time to finish the request in flight.
	time.Sleep(2 * time.Second)

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Worker exited")
}
