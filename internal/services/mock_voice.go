package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// MockVoiceService is a mock implementation of VoiceService for testing
type MockVoiceService struct {
	InitModelFunc  func(ctx context.Context, modelName string) error
	ModelReadyFunc func(ctx context.Context, modelName string) (bool, error)
	GenerateFunc   func(ctx context.Context, persona *voice.Persona, messages []turn.Message) (*turn.VoiceResponse, error)

	// Track calls for testing
	InitModelCalls  []string
	ModelReadyCalls []string
	GenerateCalls   []GenerateCall

	voiceResponses map[string]*turn.VoiceResponse
	voiceErrors    map[string]error

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	PersonaID string
	Messages  []turn.Message
}

var _ VoiceService = (*MockVoiceService)(nil)

// NewMockVoiceService creates a new mock voice service
func NewMockVoiceService() *MockVoiceService {
	return &MockVoiceService{
		InitModelCalls:  make([]string, 0),
		ModelReadyCalls: make([]string, 0),
		GenerateCalls:   make([]GenerateCall, 0),
		voiceResponses:  make(map[string]*turn.VoiceResponse),
		voiceErrors:     make(map[string]error),
	}
}

// InitModel mocks model initialization
func (m *MockVoiceService) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// ModelReady mocks model readiness check
func (m *MockVoiceService) ModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ModelReadyCalls = append(m.ModelReadyCalls, modelName)

	if m.ModelReadyFunc != nil {
		return m.ModelReadyFunc(ctx, modelName)
	}
	return true, nil
}

// Generate mocks voice generation. Scripted per-voice responses and
// errors take priority, then the GenerateFunc override, then a default
// canned narration.
func (m *MockVoiceService) Generate(ctx context.Context, persona *voice.Persona, messages []turn.Message) (*turn.VoiceResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	personaID := ""
	if persona != nil {
		personaID = persona.ID
	}
	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{
		PersonaID: personaID,
		Messages:  messages,
	})

	if err, ok := m.voiceErrors[personaID]; ok {
		return nil, err
	}
	if resp, ok := m.voiceResponses[personaID]; ok {
		return resp, nil
	}
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, persona, messages)
	}

	return &turn.VoiceResponse{
		Text:        "Mock response",
		ContentSafe: true,
	}, nil
}

// SetVoiceResponse scripts the response returned for one voice
func (m *MockVoiceService) SetVoiceResponse(voiceID string, resp *turn.VoiceResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceResponses[voiceID] = resp
}

// SetVoiceError scripts a generation failure for one voice
func (m *MockVoiceService) SetVoiceError(voiceID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceErrors[voiceID] = err
}

// SetGenerateError sets up the mock to fail every generation
func (m *MockVoiceService) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, persona *voice.Persona, messages []turn.Message) (*turn.VoiceResponse, error) {
		return nil, err
	}
	for id := range m.voiceResponses {
		delete(m.voiceResponses, id)
	}
}

// SetModelNotReady sets up the mock to report the model as not ready
func (m *MockVoiceService) SetModelNotReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModelReadyFunc = func(ctx context.Context, modelName string) (bool, error) {
		return false, nil
	}
}

// Reset clears all call tracking and scripted behavior
func (m *MockVoiceService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ModelReadyCalls = make([]string, 0)
	m.GenerateCalls = make([]GenerateCall, 0)
	m.voiceResponses = make(map[string]*turn.VoiceResponse)
	m.voiceErrors = make(map[string]error)
	m.InitModelFunc = nil
	m.ModelReadyFunc = nil
	m.GenerateFunc = nil
}

// GeneratedVoices returns the persona IDs passed to Generate, in call
// order, in a thread-safe way
func (m *MockVoiceService) GeneratedVoices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(m.GenerateCalls))
	for i, call := range m.GenerateCalls {
		ids[i] = call.PersonaID
	}
	return ids
}
