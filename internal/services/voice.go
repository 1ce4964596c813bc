package services

import (
	"context"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// Provider names accepted by configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderVenice    = "venice"
	ProviderOllama    = "ollama"
)

// VoiceService defines the interface for generating a single voice's
// contribution to a turn.
type VoiceService interface {
	// InitModel initializes the generation model on startup
	InitModel(ctx context.Context, modelName string) error

	// ModelReady checks if the specified model is ready for use
	ModelReady(ctx context.Context, modelName string) (bool, error)

	// Generate produces one voice response for the assembled prompt.
	// When the persona wants structured fields, the response carries
	// them parsed from the completion.
	Generate(ctx context.Context, persona *voice.Persona, messages []turn.Message) (*turn.VoiceResponse, error)
}
