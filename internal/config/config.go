package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime settings for the API and worker binaries.
// Everything comes from environment variables with sensible defaults.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Voice generation backend
	VoiceProvider   string // "anthropic", "venice" or "ollama"
	AnthropicAPIKey string
	AnthropicModel  string
	VeniceAPIKey    string
	VeniceModel     string
	OllamaURL       string
	OllamaModel     string

	// Redis (sessions, queue, pub/sub)
	RedisAddr     string
	RedisPassword string

	// Static content (quests, personas, enemies)
	DataDir string

	// Turn budget for new sessions
	MaxTurns int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		VoiceProvider:   getEnv("VOICE_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		VeniceAPIKey:    getEnv("VENICE_API_KEY", ""),
		VeniceModel:     getEnv("VENICE_MODEL", "venice-uncensored"),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.2"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		DataDir: getEnv("DATA_DIR", "./data"),

		MaxTurns: getEnvInt("MAX_TURNS", 50),
	}
}

// ModelName returns the model for the configured provider.
func (c *Config) ModelName() string {
	switch strings.ToLower(c.VoiceProvider) {
	case "venice":
		return c.VeniceModel
	case "ollama":
		return c.OllamaModel
	}
	return c.AnthropicModel
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
