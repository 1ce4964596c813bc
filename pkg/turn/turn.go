package turn

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

const (
	RoleUser   = "user"      // the player
	RoleAgent  = "assistant" // a narrative voice
	RoleSystem = "system"    // engine directives
)

// MaxActionLength bounds a single player action.
const MaxActionLength = 2000

// Message is one entry in a session transcript, shaped the way chat
// completion APIs expect it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one player turn arriving at the engine. Exactly one of
// Action, Choice or Combat carries the intent.
type Request struct {
	SessionID uuid.UUID      `json:"session_id"`
	Action    string         `json:"action,omitempty"`
	Choice    *int           `json:"choice_index,omitempty"`
	Combat    *combat.Action `json:"combat_action,omitempty"`
}

func (r *Request) Validate() error {
	if r.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	intents := 0
	if strings.TrimSpace(r.Action) != "" {
		intents++
	}
	if r.Choice != nil {
		intents++
	}
	if r.Combat != nil {
		intents++
	}
	if intents == 0 {
		return fmt.Errorf("one of action, choice_index or combat_action is required")
	}
	if intents > 1 {
		return fmt.Errorf("action, choice_index and combat_action are mutually exclusive")
	}
	if len(r.Action) > MaxActionLength {
		return fmt.Errorf("action exceeds maximum length of %d", MaxActionLength)
	}
	if r.Choice != nil && *r.Choice < 0 {
		return fmt.Errorf("choice_index cannot be negative")
	}
	return nil
}

// VoiceResponse is what a generation backend returns for one voice call.
type VoiceResponse struct {
	Text        string                 `json:"text"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	ContentSafe bool                   `json:"content_safe"`
}

// VoiceOutput is one voice's contribution to a completed turn. Fallback
// marks a scripted line substituted for a failed generation.
type VoiceOutput struct {
	VoiceID     string                 `json:"voice_id"`
	Text        string                 `json:"text"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	ContentSafe bool                   `json:"content_safe"`
	Fallback    bool                   `json:"fallback,omitempty"`
}

// Choice is one selectable option offered to the player. QuestID links
// the option to the quest it starts.
type Choice struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	QuestID string `json:"quest_id,omitempty"`
}

// Response is the aggregate result of one turn. Streaming transports
// derive their per-voice events from Outputs in order.
type Response struct {
	SessionID       uuid.UUID      `json:"session_id"`
	TurnCount       int            `json:"turn_count"`
	AdventureTurn   int            `json:"adventure_turn"`
	Phase           string         `json:"phase"`
	StoryPhase      string         `json:"story_phase"`
	Outputs         []VoiceOutput  `json:"outputs"`
	Choices         []Choice       `json:"choices,omitempty"`
	CombatLog       []combat.Event `json:"combat_log,omitempty"`
	ClosureEligible bool           `json:"closure_eligible,omitempty"`
}

// maxSpeakerLen bounds how far into a message a colon still reads as a
// speaker prefix.
const maxSpeakerLen = 50

// FormatWithSpeaker prefixes a message with the speaker's name unless it
// already carries a speaker prefix. A colon early in the message is
// treated as an existing prefix; later colons are ordinary punctuation.
func FormatWithSpeaker(message, speaker string) string {
	if idx := strings.Index(message, ":"); idx > 0 && idx <= maxSpeakerLen {
		return message
	}
	return speaker + ": " + message
}
