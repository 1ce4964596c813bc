package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"
	msgNoResponse = "(no response)"

	DefaultVeniceTemperature    = 0.7
	StructuredVeniceTemperature = 0.0
	DefaultVeniceMaxTokens      = 1024
	StructuredVeniceMaxTokens   = 512
)

// VeniceService implements VoiceService for Venice AI
type VeniceService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
}

type VeniceResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema VeniceJSONSchema `json:"json_schema"`
}

type VeniceJSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type VeniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

// VeniceChatRequest represents the request structure for Venice AI chat completions
type VeniceChatRequest struct {
	Model            string                `json:"model"`
	Messages         []turn.Message        `json:"messages"`
	Temperature      float64               `json:"temperature,omitempty"`
	MaxTokens        int                   `json:"max_tokens,omitempty"`
	Stream           bool                  `json:"stream"`
	ResponseFormat   *VeniceResponseFormat `json:"response_format,omitempty"`
	VeniceParameters VeniceParameters      `json:"venice_parameters"`
}

// VeniceChatChoice represents a single choice in the Venice AI response
type VeniceChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// VeniceChatResponse represents the response structure for Venice AI chat completions
type VeniceChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []VeniceChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewVeniceService creates a new Venice AI service
func NewVeniceService(apiKey string, modelName string) *VeniceService {
	return &VeniceService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// InitModel initializes the model (Venice AI doesn't require explicit model initialization)
func (v *VeniceService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// ModelReady reports readiness; Venice models are hosted.
func (v *VeniceService) ModelReady(ctx context.Context, modelName string) (bool, error) {
	return true, nil
}

// chatCompletion makes a chat completion request to Venice AI with the specified model
func (v *VeniceService) chatCompletion(ctx context.Context, messages []turn.Message, modelName string, temperature float64, responseFormat *VeniceResponseFormat) (string, error) {
	maxTokens := DefaultVeniceMaxTokens
	if responseFormat != nil {
		maxTokens = StructuredVeniceMaxTokens
	}
	veniceReq := VeniceChatRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
		VeniceParameters: VeniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}

	if responseFormat != nil {
		veniceReq.ResponseFormat = responseFormat
	}

	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", veniceBaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var veniceResp VeniceChatResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}

	if len(veniceResp.Choices) == 0 {
		return msgNoResponse, nil
	}

	return veniceResp.Choices[0].Message.Content, nil
}

// interviewerResponseFormat returns the response format for character
// creation turns. The narration property carries the visible reply.
func interviewerResponseFormat() *VeniceResponseFormat {
	return &VeniceResponseFormat{
		Type: "json_schema",
		JSONSchema: VeniceJSONSchema{
			Name:   "character_creation",
			Strict: true,
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"narration": map[string]interface{}{
						"type": "string",
					},
					"creation_complete": map[string]interface{}{
						"type": "boolean",
					},
					"pc": map[string]interface{}{
						"type":                 []string{"object", "null"},
						"additionalProperties": false,
						"properties": map[string]interface{}{
							"name": map[string]interface{}{
								"type": "string",
							},
							"class": map[string]interface{}{
								"type": "string",
							},
							"race": map[string]interface{}{
								"type": "string",
							},
							"description": map[string]interface{}{
								"type": "string",
							},
							"stats": map[string]interface{}{
								"type":                 "object",
								"additionalProperties": false,
								"properties": map[string]interface{}{
									"strength":     map[string]interface{}{"type": "integer"},
									"dexterity":    map[string]interface{}{"type": "integer"},
									"constitution": map[string]interface{}{"type": "integer"},
									"intelligence": map[string]interface{}{"type": "integer"},
									"wisdom":       map[string]interface{}{"type": "integer"},
									"charisma":     map[string]interface{}{"type": "integer"},
								},
								"required": []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"},
							},
							"hp": map[string]interface{}{
								"type": "integer",
							},
							"max_hp": map[string]interface{}{
								"type": "integer",
							},
							"ac": map[string]interface{}{
								"type": "integer",
							},
							"damage_dice": map[string]interface{}{
								"type": "string",
							},
						},
						"required": []string{"name", "class", "race", "stats", "hp", "max_hp", "ac", "damage_dice"},
					},
				},
				"required": []string{"narration", "creation_complete", "pc"},
			},
		},
	}
}

// questgiverResponseFormat returns the response format for quest
// selection turns.
func questgiverResponseFormat() *VeniceResponseFormat {
	return &VeniceResponseFormat{
		Type: "json_schema",
		JSONSchema: VeniceJSONSchema{
			Name:   "quest_offers",
			Strict: true,
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"narration": map[string]interface{}{
						"type": "string",
					},
					"choices": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":                 "object",
							"additionalProperties": false,
							"properties": map[string]interface{}{
								"index": map[string]interface{}{
									"type": "integer",
								},
								"label": map[string]interface{}{
									"type": "string",
								},
								"quest_id": map[string]interface{}{
									"type": "string",
								},
							},
							"required": []string{"index", "label", "quest_id"},
						},
					},
				},
				"required": []string{"narration", "choices"},
			},
		},
	}
}

// adjudicatorResponseFormat returns the response format for mechanical
// rulings outside combat.
func adjudicatorResponseFormat() *VeniceResponseFormat {
	return &VeniceResponseFormat{
		Type: "json_schema",
		JSONSchema: VeniceJSONSchema{
			Name:   "action_adjudication",
			Strict: true,
			Schema: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]interface{}{
					"narration": map[string]interface{}{
						"type": "string",
					},
					"encounter": map[string]interface{}{
						"type":                 []string{"object", "null"},
						"additionalProperties": false,
						"properties": map[string]interface{}{
							"enemies": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type": "string",
								},
							},
						},
						"required": []string{"enemies"},
					},
					"quest_complete": map[string]interface{}{
						"type": "boolean",
					},
					"content_safe": map[string]interface{}{
						"type": "boolean",
					},
				},
				"required": []string{"narration", "encounter", "quest_complete", "content_safe"},
			},
		},
	}
}

// responseFormatFor maps a persona to its structured response format,
// or nil for free-form narration.
func responseFormatFor(persona *voice.Persona) *VeniceResponseFormat {
	if persona == nil || !persona.WantsFields {
		return nil
	}
	switch persona.ID {
	case voice.Interviewer:
		return interviewerResponseFormat()
	case voice.Questgiver:
		return questgiverResponseFormat()
	case voice.Adjudicator:
		return adjudicatorResponseFormat()
	default:
		return nil
	}
}

// Generate produces one voice response using Venice AI. Voices that
// want structured fields run at temperature zero with a strict JSON
// schema response format.
func (v *VeniceService) Generate(ctx context.Context, persona *voice.Persona, messages []turn.Message) (*turn.VoiceResponse, error) {
	responseFormat := responseFormatFor(persona)
	temperature := DefaultVeniceTemperature
	if responseFormat != nil {
		temperature = StructuredVeniceTemperature
	}

	content, err := v.chatCompletion(ctx, messages, v.modelName, temperature, responseFormat)
	if err != nil {
		return nil, err
	}

	wantsFields := persona != nil && persona.WantsFields
	return parseVoiceResponse(content, wantsFields), nil
}
