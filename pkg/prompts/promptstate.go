package prompts

import (
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/pacing"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// PromptState is a reduced session for voice prompts. Only what a voice
// needs to keep the story coherent is included; transcript history and
// engine bookkeeping stay out.
type PromptState struct {
	Phase          session.Phase     `json:"phase"`
	StoryPhase     pacing.StoryPhase `json:"story_phase"`
	AdventureTurn  int               `json:"adventure_turn"`
	MaxTurns       int               `json:"max_turns"`
	QuestComplete  bool              `json:"quest_complete"`
	QuestTitle     string            `json:"quest_title,omitempty"`
	QuestObjective string            `json:"quest_objective,omitempty"`
	PCName         string            `json:"pc_name,omitempty"`
	Combatants     []string          `json:"combatants,omitempty"`
	PendingChoices []string          `json:"pending_choices,omitempty"`
	Vars           map[string]string `json:"vars,omitempty"`
}

// ToPromptState reduces a session to its prompt-relevant core.
func ToPromptState(s *session.Session) *PromptState {
	ps := &PromptState{
		Phase:         s.Phase,
		StoryPhase:    s.StoryPhase,
		AdventureTurn: s.AdventureTurn,
		MaxTurns:      s.MaxTurns,
		QuestComplete: s.QuestComplete,
		Vars:          s.Vars,
	}

	if s.Quest != nil {
		ps.QuestTitle = s.Quest.Title
		ps.QuestObjective = s.Quest.Objective
	}
	if s.PC != nil {
		ps.PCName = s.PC.Spec.Name
	}
	if s.Encounter != nil && !s.Encounter.Resolved() {
		for _, c := range s.Encounter.Combatants {
			ps.Combatants = append(ps.Combatants,
				fmt.Sprintf("%s (%d/%d HP)", c.Name, c.HP, c.MaxHP))
		}
	}
	for _, ch := range s.PendingChoices {
		ps.PendingChoices = append(ps.PendingChoices,
			fmt.Sprintf("%d. %s", ch.Index, ch.Label))
	}

	return ps
}
