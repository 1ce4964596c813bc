package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func TestNewVeniceService(t *testing.T) {
	apiKey := "test-api-key"
	modelName := "test-model"

	service := NewVeniceService(apiKey, modelName)

	if service.apiKey != apiKey {
		t.Errorf("Expected apiKey %s, got %s", apiKey, service.apiKey)
	}

	if service.modelName != modelName {
		t.Errorf("Expected modelName %s, got %s", modelName, service.modelName)
	}

	if service.httpClient == nil {
		t.Error("Expected httpClient to be initialized")
	}
}

func TestVeniceService_InitModel(t *testing.T) {
	service := NewVeniceService("test-key", "test-model")

	if err := service.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	ready, err := service.ModelReady(context.Background(), "test-model")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !ready {
		t.Error("Expected hosted model to report ready")
	}
}

func TestVeniceChatRequestStructure(t *testing.T) {
	messages := []turn.Message{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there!"},
	}

	req := VeniceChatRequest{
		Model:       "test-model",
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
		Stream:      false,
	}

	if req.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", req.Model)
	}

	if len(req.Messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(req.Messages))
	}

	if req.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %f", req.Temperature)
	}
}

func TestResponseFormatFor(t *testing.T) {
	roster := voice.DefaultRoster()

	structured := []string{voice.Interviewer, voice.Questgiver, voice.Adjudicator}
	for _, id := range structured {
		p, err := roster.Get(id)
		if err != nil {
			t.Fatalf("roster missing %s: %v", id, err)
		}
		format := responseFormatFor(p)
		if format == nil {
			t.Errorf("Expected response format for %s", id)
			continue
		}
		if format.Type != "json_schema" {
			t.Errorf("Expected json_schema type for %s, got %s", id, format.Type)
		}
		if !format.JSONSchema.Strict {
			t.Errorf("Expected strict schema for %s", id)
		}
		// Every schema must be marshalable and carry a narration slot
		// so the visible reply survives structured mode.
		data, err := json.Marshal(format)
		if err != nil {
			t.Errorf("Schema for %s does not marshal: %v", id, err)
			continue
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Errorf("Schema for %s does not round-trip: %v", id, err)
		}
		props, ok := format.JSONSchema.Schema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("Schema for %s has no properties", id)
			continue
		}
		if _, ok := props["narration"]; !ok {
			t.Errorf("Schema for %s has no narration property", id)
		}
	}

	narrator, err := roster.Get(voice.Narrator)
	if err != nil {
		t.Fatalf("roster missing narrator: %v", err)
	}
	if format := responseFormatFor(narrator); format != nil {
		t.Error("Expected no response format for free-form narration")
	}
	if format := responseFormatFor(nil); format != nil {
		t.Error("Expected no response format for nil persona")
	}
}

func TestVeniceSchemaFieldNames(t *testing.T) {
	tests := []struct {
		name     string
		format   *VeniceResponseFormat
		expected []string
	}{
		{"interviewer", interviewerResponseFormat(), []string{"narration", "creation_complete", "pc"}},
		{"questgiver", questgiverResponseFormat(), []string{"narration", "choices"}},
		{"adjudicator", adjudicatorResponseFormat(), []string{"narration", "encounter", "quest_complete", "content_safe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, ok := tt.format.JSONSchema.Schema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("schema has no properties")
			}
			for _, field := range tt.expected {
				if _, ok := props[field]; !ok {
					t.Errorf("Expected property %q in schema", field)
				}
			}
		})
	}
}
