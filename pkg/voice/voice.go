// Package voice models the narrative personas of the engine and the
// router that picks which of them speak on a given turn.
package voice

import "strings"

// Canonical voice IDs. The roster may carry more, but the engine's
// routing rules are written against these six.
const (
	Narrator    = "narrator"
	Adjudicator = "adjudicator"
	Jester      = "jester"
	Interviewer = "interviewer"
	Questgiver  = "questgiver"
	Chronicler  = "chronicler"
)

// Persona describes one narrative voice: how it speaks, what it says
// when generation fails, and whether it reports structured fields
// alongside its prose.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Prompts     []string `json:"prompts,omitempty"`
	Fallback    string   `json:"fallback"`
	WantsFields bool     `json:"wants_fields,omitempty"`
}

// GetPromptsAsString returns the persona's style prompts as a single
// newline-separated string for system prompt injection.
func (p *Persona) GetPromptsAsString() string {
	if p == nil || len(p.Prompts) == 0 {
		return ""
	}
	return strings.Join(p.Prompts, "\n")
}
