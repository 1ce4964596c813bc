// Package quest holds the content types behind quest selection and
// encounter spawning. Quests and enemy templates load from JSON data
// files, with compiled-in defaults so the engine works out of the box.
package quest

import "strings"

// Quest is the template for one adventure objective.
type Quest struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Hook      string            `json:"hook"`              // how the quest giver pitches it
	Objective string            `json:"objective"`         // what completes the quest
	Stages    []string          `json:"stages,omitempty"`  // beats the narrator can pace against
	EnemyIDs  []string          `json:"enemies,omitempty"` // enemy template ids this quest may spawn
	Vars      map[string]string `json:"vars,omitempty"`    // initial session vars
}

// BuildPrompt constructs the quest section of a voice's system prompt.
// Returns an empty string for a nil quest.
func (q *Quest) BuildPrompt() string {
	if q == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("ACTIVE QUEST: ")
	sb.WriteString(q.Title)
	if q.Hook != "" {
		sb.WriteString("\n")
		sb.WriteString(q.Hook)
	}
	if q.Objective != "" {
		sb.WriteString("\nObjective: ")
		sb.WriteString(q.Objective)
	}
	if len(q.Stages) > 0 {
		sb.WriteString("\nStory beats:")
		for _, s := range q.Stages {
			sb.WriteString("\n- ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}
