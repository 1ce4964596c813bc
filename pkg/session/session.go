// Package session defines the persistent unit of play: one adventure,
// one player character, one mutable record. The engine owns all
// transitions; the session only holds state and enforces its local
// bookkeeping rules.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/pacing"
	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// Phase is the session flow position. Transitions only move forward,
// except combat, which is entered and left repeatedly from exploration.
type Phase string

const (
	PhaseCharacterCreation Phase = "character_creation"
	PhaseQuestSelection    Phase = "quest_selection"
	PhaseExploration       Phase = "exploration"
	PhaseCombat            Phase = "combat"
	PhaseEpilogue          Phase = "epilogue"
	PhaseEnded             Phase = "ended"
)

// Combat shares exploration's rank so the two may toggle freely.
var phaseOrder = map[Phase]int{
	PhaseCharacterCreation: 0,
	PhaseQuestSelection:    1,
	PhaseExploration:       2,
	PhaseCombat:            2,
	PhaseEpilogue:          3,
	PhaseEnded:             4,
}

// Content ratings a session may carry.
const (
	RatingG    = "G"
	RatingPG   = "PG"
	RatingPG13 = "PG13"
	RatingR    = "R"
)

// ValidRating reports whether r is a known content rating.
func ValidRating(r string) bool {
	switch r {
	case RatingG, RatingPG, RatingPG13, RatingR:
		return true
	}
	return false
}

// RecentVoiceWindow bounds how many past primary voices a session
// remembers.
const RecentVoiceWindow = 5

// PromptHistoryLimit is the default number of transcript messages
// included in a voice prompt.
const PromptHistoryLimit = 20

// Session is the full mutable state of one adventure.
type Session struct {
	ID            uuid.UUID         `json:"id"`
	Phase         Phase             `json:"phase"`
	StoryPhase    pacing.StoryPhase `json:"story_phase"`
	TurnCount     int               `json:"turn_count"`
	AdventureTurn int               `json:"adventure_turn"`
	MaxTurns      int               `json:"max_turns"`
	QuestComplete bool              `json:"quest_complete,omitempty"`
	Rating        string            `json:"rating,omitempty"` // content rating: G, PG, PG13, R

	PC        *actor.PC         `json:"pc,omitempty"`
	Quest     *quest.Quest      `json:"quest,omitempty"`
	Encounter *combat.Encounter `json:"encounter,omitempty"`

	PendingChoices []turn.Choice     `json:"pending_choices,omitempty"`
	RecentVoices   []string          `json:"recent_voices,omitempty"`
	SinceComic     int               `json:"turns_since_comic_relief"`
	History        []turn.Message    `json:"history,omitempty"`
	Vars           map[string]string `json:"vars,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a fresh session awaiting character creation. A
// non-positive budget falls back to the default.
func New(maxTurns int) *Session {
	if maxTurns <= 0 {
		maxTurns = pacing.DefaultMaxTurns
	}
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New(),
		Phase:         PhaseCharacterCreation,
		StoryPhase:    pacing.StorySetup,
		AdventureTurn: 1,
		MaxTurns:      maxTurns,
		Rating:        RatingPG13,
		History:       make([]turn.Message, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ArcActive reports whether completed turns advance the adventure arc.
// Creation, selection and the epilogue sit outside the turn budget.
func (s *Session) ArcActive() bool {
	return s.Phase == PhaseExploration || s.Phase == PhaseCombat
}

// NoteTurn records one completed turn: the primary (last) voice joins the
// recent-voice window, the comic-relief counter resets or advances, and
// the turn counters increment. The adventure turn moves only while the
// arc is active.
func (s *Session) NoteTurn(primaryVoice string, comicSpoke bool) {
	if primaryVoice != "" {
		s.RecentVoices = append(s.RecentVoices, primaryVoice)
		if len(s.RecentVoices) > RecentVoiceWindow {
			s.RecentVoices = s.RecentVoices[len(s.RecentVoices)-RecentVoiceWindow:]
		}
	}
	if comicSpoke {
		s.SinceComic = 0
	} else {
		s.SinceComic++
	}
	s.TurnCount++
	if s.ArcActive() {
		s.AdventureTurn++
	}
	s.UpdatedAt = time.Now().UTC()
}

// SetPhase moves the session flow forward. Exploration and combat toggle
// freely; any other backward move is rejected.
func (s *Session) SetPhase(to Phase) error {
	fromRank, ok := phaseOrder[s.Phase]
	if !ok {
		return fmt.Errorf("session in unknown phase %q", s.Phase)
	}
	toRank, ok := phaseOrder[to]
	if !ok {
		return fmt.Errorf("unknown phase %q", to)
	}
	if toRank < fromRank {
		return fmt.Errorf("phase cannot move back from %s to %s", s.Phase, to)
	}
	s.Phase = to
	return nil
}

// AppendHistory adds messages to the transcript.
func (s *Session) AppendHistory(msgs ...turn.Message) {
	s.History = append(s.History, msgs...)
}

// HistoryWindow returns the most recent limit messages for prompt
// building. The full transcript stays on the session.
func (s *Session) HistoryWindow(limit int) []turn.Message {
	if limit <= 0 || limit >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-limit:]
}
