package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/pacing"
	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// Builder constructs the message array for one voice invocation using a
// fluent interface. It separates prompt assembly from engine logic.
type Builder struct {
	persona       *voice.Persona
	sess          *session.Session
	directive     *pacing.Directive
	userAction    string
	combatSummary string
	storyEvents   string
	priorOutputs  []turn.VoiceOutput
	questCatalog  []*quest.Quest
	historyLimit  int
	messages      []turn.Message
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: session.PromptHistoryLimit,
		messages:     make([]turn.Message, 0),
	}
}

// WithPersona sets the voice being invoked.
func (b *Builder) WithPersona(p *voice.Persona) *Builder {
	b.persona = p
	return b
}

// WithSession sets the session whose state frames the prompt.
func (b *Builder) WithSession(s *session.Session) *Builder {
	b.sess = s
	return b
}

// WithDirective sets the pacing guidance for this turn.
func (b *Builder) WithDirective(d *pacing.Directive) *Builder {
	b.directive = d
	return b
}

// WithUserAction sets the player's action text.
func (b *Builder) WithUserAction(action string) *Builder {
	b.userAction = action
	return b
}

// WithCombatSummary sets the mechanical combat events to narrate.
func (b *Builder) WithCombatSummary(summary string) *Builder {
	b.combatSummary = summary
	return b
}

// WithStoryEvents sets queued narrative beats to weave into this turn.
func (b *Builder) WithStoryEvents(events string) *Builder {
	b.storyEvents = events
	return b
}

// WithPriorOutputs exposes what earlier voices said this turn.
func (b *Builder) WithPriorOutputs(outs []turn.VoiceOutput) *Builder {
	b.priorOutputs = outs
	return b
}

// WithQuestCatalog lists the quests the quest giver may offer.
func (b *Builder) WithQuestCatalog(quests []*quest.Quest) *Builder {
	b.questCatalog = quests
	return b
}

// WithHistoryLimit sets the transcript window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for the voice.
func (b *Builder) Build() ([]turn.Message, error) {
	if b.persona == nil {
		return nil, fmt.Errorf("persona is required")
	}
	if b.sess == nil {
		return nil, fmt.Errorf("session is required")
	}

	// Reset messages
	b.messages = make([]turn.Message, 0)

	// 1. System prompt
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. Windowed transcript
	b.addHistory()

	// 3. The player's action
	b.addUserAction()

	// 4. Queued story events (if any)
	b.addStoryEvents()

	// 5. Mechanical combat result (if any)
	b.addCombatSummary()

	// 6. Earlier voices this turn (if any)
	b.addPriorOutputs()

	// 7. Final reminders
	b.addFinalPrompt()

	return b.messages, nil
}

// addSystemPrompt builds the main system prompt from persona, rating,
// character sheet, quest context, state and pacing guidance.
func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder

	sb.WriteString(BuildSystemPrompt(b.persona))

	rating := b.sess.Rating
	if rating == "" {
		rating = session.RatingPG13
	}
	sb.WriteString("\n\nContent Rating: " + rating)
	sb.WriteString(" (" + GetContentRatingPrompt(rating) + ")")

	if b.sess.PC != nil {
		sb.WriteString("\n\n### Player Character\n")
		sb.WriteString(actor.BuildPrompt(b.sess.PC))
	}

	if b.sess.Quest != nil {
		sb.WriteString("\n\n" + b.sess.Quest.BuildPrompt())
	}

	if len(b.questCatalog) > 0 {
		sb.WriteString("\n\n### Available Quests\n")
		for _, q := range b.questCatalog {
			sb.WriteString(fmt.Sprintf("- %s: %s", q.ID, q.Title))
			if q.Hook != "" {
				sb.WriteString(" (" + q.Hook + ")")
			}
			sb.WriteString("\n")
		}
	}

	statePrompt, err := GetStatePrompt(b.sess)
	if err != nil {
		return fmt.Errorf("error generating state prompt: %w", err)
	}
	sb.WriteString("\n\n" + statePrompt.Content)

	if b.directive != nil {
		sb.WriteString("\n\n" + DirectivePrompt(b.directive))
	}

	if b.persona.WantsFields {
		if fp := FieldsPrompt(b.persona.ID); fp != "" {
			sb.WriteString("\n\n" + fp)
		}
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleSystem,
		Content: sb.String(),
	})

	return nil
}

// addHistory adds the windowed transcript to the message array.
func (b *Builder) addHistory() {
	window := b.sess.HistoryWindow(b.historyLimit)
	if len(window) == 0 {
		return
	}
	b.messages = append(b.messages, window...)
}

// addUserAction adds the current player action to the message array.
func (b *Builder) addUserAction() {
	if b.userAction == "" {
		return
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleUser,
		Content: b.userAction,
	})
}

// addStoryEvents adds queued story events if present.
func (b *Builder) addStoryEvents() {
	if b.storyEvents == "" {
		return
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleSystem,
		Content: b.storyEvents,
	})
}

// addCombatSummary adds the resolved mechanical events, when present.
func (b *Builder) addCombatSummary() {
	if b.combatSummary == "" {
		return
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleSystem,
		Content: fmt.Sprintf(CombatSummaryPrompt, b.combatSummary),
	})
}

// addPriorOutputs lets later voices hear what earlier ones said.
func (b *Builder) addPriorOutputs() {
	if len(b.priorOutputs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("Voices that already spoke this turn. Weave their contributions into your reply without repeating them:\n")
	for _, out := range b.priorOutputs {
		sb.WriteString(fmt.Sprintf("\n%s:\n%s\n", out.VoiceID, out.Text))
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleSystem,
		Content: sb.String(),
	})
}

// addFinalPrompt adds closing or standard reminders.
func (b *Builder) addFinalPrompt() {
	var finalPrompt string

	if b.sess.Phase == session.PhaseEpilogue || b.sess.Phase == session.PhaseEnded {
		finalPrompt = ClosurePrompt
	} else {
		finalPrompt = UserPostPrompt
	}

	b.messages = append(b.messages, turn.Message{
		Role:    turn.RoleSystem,
		Content: finalPrompt,
	})
}
