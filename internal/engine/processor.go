// Package engine orchestrates one player turn end to end: pacing, combat
// resolution, voice routing, sequential generation with fallbacks, and
// the single state commit at the end. It is shared by the synchronous
// HTTP handler and the async queue worker.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/pacing"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/textfilter"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// DefaultVoiceTimeout bounds one generation call. A voice that exceeds
// it is replaced by its scripted fallback; the turn is never retried.
const DefaultVoiceTimeout = 30 * time.Second

// StoryEventSource supplies queued narrative beats for a session. The
// Redis turn queue implements it; the sync path may run without one.
type StoryEventSource interface {
	DequeueStoryEvents(ctx context.Context, sessionID uuid.UUID) ([]string, error)
}

// Observer receives per-voice progress while a turn runs. The async
// worker bridges it to the event broadcaster; a nil observer is valid.
type Observer interface {
	VoiceStarted(ctx context.Context, sessionID uuid.UUID, voiceID string)
	VoiceCompleted(ctx context.Context, sessionID uuid.UUID, out turn.VoiceOutput)
}

// TurnProcessor runs complete turns against one storage and voice
// backend. It is safe for concurrent use; turns for the same session are
// serialized internally.
type TurnProcessor struct {
	storage storage.Storage
	voices  services.VoiceService
	roster  *voice.Roster
	router  *voice.Router
	roller  *dice.Roller
	filter  *textfilter.ProfanityFilter
	logger  *slog.Logger
	locks   *sessionLocks

	events       StoryEventSource
	observer     Observer
	voiceTimeout time.Duration
}

// NewTurnProcessor wires a processor from its collaborators. A nil
// roller gets a time-seeded source; tests pass a seeded one.
func NewTurnProcessor(st storage.Storage, vs services.VoiceService, roster *voice.Roster, router *voice.Router, roller *dice.Roller, logger *slog.Logger) *TurnProcessor {
	if roller == nil {
		roller = dice.NewRoller(dice.NewTimeSource())
	}
	return &TurnProcessor{
		storage:      st,
		voices:       vs,
		roster:       roster,
		router:       router,
		roller:       roller,
		filter:       textfilter.NewProfanityFilter(),
		logger:       logger,
		locks:        newSessionLocks(),
		voiceTimeout: DefaultVoiceTimeout,
	}
}

// WithStoryEvents attaches a queued-beat source.
func (p *TurnProcessor) WithStoryEvents(src StoryEventSource) *TurnProcessor {
	p.events = src
	return p
}

// WithObserver attaches a per-voice progress observer.
func (p *TurnProcessor) WithObserver(obs Observer) *TurnProcessor {
	p.observer = obs
	return p
}

// WithVoiceTimeout overrides the per-call generation timeout.
func (p *TurnProcessor) WithVoiceTimeout(d time.Duration) *TurnProcessor {
	if d > 0 {
		p.voiceTimeout = d
	}
	return p
}

// ProcessTurn resolves one player turn. Errors before the voice stage
// (unknown session, out-of-turn combat action, invalid choice) leave the
// session untouched and consume no turn; once voices run, the turn
// always completes and commits, substituting scripted fallbacks for any
// failed generation.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req turn.Request) (*turn.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turn request: %w", err)
	}

	unlock := p.locks.Lock(req.SessionID)
	defer unlock()

	sess, err := p.storage.LoadSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Phase == session.PhaseEnded {
		return nil, ErrSessionEnded
	}

	log := p.logger.With("session_id", sess.ID.String(), "turn", sess.TurnCount+1)

	// Pacing: arc phase moves forward at most one step, never back.
	ctrl := pacing.NewController(sess.MaxTurns)
	directive := ctrl.Evaluate(sess.AdventureTurn, sess.StoryPhase, sess.QuestComplete)
	if directive.Phase.Before(sess.StoryPhase) {
		return nil, &InvariantError{SessionID: sess.ID, Detail: fmt.Sprintf("story phase regression %s -> %s", sess.StoryPhase, directive.Phase)}
	}
	sess.StoryPhase = directive.Phase

	// Closure boundary: spent budget forces the epilogue regardless of
	// quest state; an eligible, completed quest takes the same exit.
	if sess.ArcActive() && (ctrl.ClosureMandatory(sess.AdventureTurn) ||
		(directive.ClosureEligible && sess.QuestComplete)) {
		sess.Encounter = nil
		if err := sess.SetPhase(session.PhaseEpilogue); err != nil {
			return nil, &InvariantError{SessionID: sess.ID, Detail: err.Error()}
		}
		log.Info("Adventure reached closure",
			"adventure_turn", sess.AdventureTurn,
			"quest_complete", sess.QuestComplete)
	}

	// Intent gating against the current phase.
	if sess.Phase == session.PhaseCombat && req.Combat == nil {
		return nil, ErrCombatActionRequired
	}
	if req.Combat != nil && sess.Phase != session.PhaseCombat {
		return nil, fmt.Errorf("no active combat: %w", ErrCombatActionRequired)
	}

	actionText := req.Action
	if req.Choice != nil {
		actionText, err = p.applyChoice(ctx, sess, *req.Choice)
		if err != nil {
			return nil, err
		}
	}

	// Routing sees the phase the turn started in, so the adjudicator
	// still narrates the blow that ends a fight.
	routePhase := sess.Phase

	var combatEvents []combat.Event
	if req.Combat != nil {
		combatEvents, err = p.applyCombatAction(sess, *req.Combat, log)
		if err != nil {
			return nil, err
		}
		actionText = describeCombatAction(*req.Combat)
	}

	decision := p.router.Route(routePhase, actionText, sess.SinceComic)
	if len(decision.VoiceIDs) == 0 {
		return nil, &InvariantError{SessionID: sess.ID, Detail: fmt.Sprintf("router returned no voices for phase %s", routePhase)}
	}
	log.Debug("Voices routed", "voices", decision.VoiceIDs, "reason", decision.Reason)

	storyEvents := p.drainStoryEvents(ctx, sess.ID, log)

	var questCatalog []*quest.Quest
	if decision.Includes(voice.Questgiver) {
		questCatalog, err = p.storage.ListQuests(ctx)
		if err != nil {
			log.Error("Failed to list quests for quest giver", "error", err)
		}
	}

	outputs := p.invokeVoices(ctx, sess, decision, &directive, actionText, combat.Summary(combatEvents), storyEvents, questCatalog, log)

	// Structured fields drive phase transitions and combat spawning.
	spawnEvents, err := p.applyFields(ctx, sess, outputs, log)
	if err != nil {
		return nil, err
	}
	combatEvents = append(combatEvents, spawnEvents...)

	p.filterOutputs(sess, outputs)
	p.recordHistory(sess, actionText, outputs)

	// The chronicler's word is final.
	if routePhase == session.PhaseEpilogue {
		if err := sess.SetPhase(session.PhaseEnded); err != nil {
			return nil, &InvariantError{SessionID: sess.ID, Detail: err.Error()}
		}
	}

	sess.NoteTurn(decision.Primary(), decision.Includes(voice.Jester))
	if sess.AdventureTurn > sess.MaxTurns {
		return nil, &InvariantError{SessionID: sess.ID, Detail: fmt.Sprintf("adventure turn %d exceeds budget %d", sess.AdventureTurn, sess.MaxTurns)}
	}

	if err := p.storage.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &turn.Response{
		SessionID:       sess.ID,
		TurnCount:       sess.TurnCount,
		AdventureTurn:   sess.AdventureTurn,
		Phase:           string(sess.Phase),
		StoryPhase:      string(sess.StoryPhase),
		Outputs:         outputs,
		Choices:         sess.PendingChoices,
		CombatLog:       combatEvents,
		ClosureEligible: directive.ClosureEligible,
	}, nil
}

// applyChoice resolves a quest-selection pick and moves the session into
// exploration. Returns the action text the voices narrate against.
func (p *TurnProcessor) applyChoice(ctx context.Context, sess *session.Session, index int) (string, error) {
	if sess.Phase != session.PhaseQuestSelection || len(sess.PendingChoices) == 0 {
		return "", fmt.Errorf("no choices pending: %w", ErrInvalidChoice)
	}
	var picked *turn.Choice
	for i := range sess.PendingChoices {
		if sess.PendingChoices[i].Index == index {
			picked = &sess.PendingChoices[i]
			break
		}
	}
	if picked == nil {
		return "", fmt.Errorf("choice %d not offered: %w", index, ErrInvalidChoice)
	}

	q, err := p.storage.GetQuest(ctx, picked.QuestID)
	if err != nil {
		return "", fmt.Errorf("failed to load quest %q: %w", picked.QuestID, err)
	}
	if q == nil {
		return "", fmt.Errorf("quest %q does not exist: %w", picked.QuestID, ErrInvalidChoice)
	}

	sess.Quest = q
	if len(q.Vars) > 0 {
		if sess.Vars == nil {
			sess.Vars = make(map[string]string, len(q.Vars))
		}
		for k, v := range q.Vars {
			sess.Vars[k] = v
		}
	}
	sess.PendingChoices = nil
	if err := sess.SetPhase(session.PhaseExploration); err != nil {
		return "", &InvariantError{SessionID: sess.ID, Detail: err.Error()}
	}
	return fmt.Sprintf("I accept the quest: %s", q.Title), nil
}

// applyCombatAction runs one mechanical combat step. An out-of-turn or
// mis-targeted action returns its error with the encounter unchanged.
func (p *TurnProcessor) applyCombatAction(sess *session.Session, action combat.Action, log *slog.Logger) ([]combat.Event, error) {
	enc := sess.Encounter
	if enc == nil {
		return nil, &InvariantError{SessionID: sess.ID, Detail: "session in combat phase without an encounter"}
	}

	events, err := enc.PlayerAct(p.roller, action)
	if err != nil {
		return nil, err
	}
	if !enc.Resolved() && enc.Current() == nil {
		return nil, &InvariantError{SessionID: sess.ID, Detail: "combat turn index points at no combatant"}
	}

	p.syncPlayerFromEncounter(sess, log)

	if enc.Resolved() {
		if err := p.finishEncounter(sess, log); err != nil {
			return events, err
		}
	}
	return events, nil
}

// finishEncounter discards a resolved encounter and moves the session to
// the appropriate phase: back to exploration after a win or escape, to
// the epilogue when the player falls.
func (p *TurnProcessor) finishEncounter(sess *session.Session, log *slog.Logger) error {
	enc := sess.Encounter
	playerDown := !enc.Victory && !enc.Fled
	log.Info("Encounter resolved",
		"victory", enc.Victory,
		"fled", enc.Fled,
		"rounds", enc.Round)

	sess.Encounter = nil
	target := session.PhaseExploration
	if playerDown {
		target = session.PhaseEpilogue
	}
	if err := sess.SetPhase(target); err != nil {
		return &InvariantError{SessionID: sess.ID, Detail: err.Error()}
	}
	return nil
}

// syncPlayerFromEncounter writes the player combatant's HP back to the
// character sheet.
func (p *TurnProcessor) syncPlayerFromEncounter(sess *session.Session, log *slog.Logger) {
	if sess.PC == nil || sess.Encounter == nil {
		return
	}
	for _, c := range sess.Encounter.Combatants {
		if c.Kind == combat.KindPlayer {
			if err := sess.PC.ApplyCombatResult(c); err != nil {
				log.Error("Failed to sync player HP from encounter", "error", err)
			}
			return
		}
	}
}

// drainStoryEvents consumes queued narrative beats, formatted for prompt
// injection. Returns "" when no source is attached or nothing is queued.
func (p *TurnProcessor) drainStoryEvents(ctx context.Context, sessionID uuid.UUID, log *slog.Logger) string {
	if p.events == nil {
		return ""
	}
	beats, err := p.events.DequeueStoryEvents(ctx, sessionID)
	if err != nil {
		log.Error("Failed to dequeue story events", "error", err)
		return ""
	}
	if len(beats) == 0 {
		return ""
	}
	lines := make([]string, 0, len(beats))
	for _, b := range beats {
		lines = append(lines, "STORY EVENT: "+b)
	}
	return strings.Join(lines, "\n\n")
}

// invokeVoices runs the decision's voices strictly in order; later
// voices see earlier outputs. A failed or timed-out generation becomes
// the persona's scripted fallback line, never an error. When every voice
// fails, only the primary voice's fallback is returned.
func (p *TurnProcessor) invokeVoices(ctx context.Context, sess *session.Session, decision voice.Decision, directive *pacing.Directive, actionText, combatSummary, storyEvents string, questCatalog []*quest.Quest, log *slog.Logger) []turn.VoiceOutput {
	outputs := make([]turn.VoiceOutput, 0, len(decision.VoiceIDs))

	for _, id := range decision.VoiceIDs {
		persona, err := p.roster.Get(id)
		if err != nil {
			log.Error("Routed voice missing from roster", "voice", id, "error", err)
			persona = &voice.Persona{ID: id, Name: id, Fallback: "..."}
		}

		if p.observer != nil {
			p.observer.VoiceStarted(ctx, sess.ID, id)
		}

		out := p.invokeOne(ctx, sess, persona, directive, actionText, combatSummary, storyEvents, questCatalog, outputs, log)
		outputs = append(outputs, out)

		if p.observer != nil {
			p.observer.VoiceCompleted(ctx, sess.ID, out)
		}
	}

	allFallback := true
	for _, out := range outputs {
		if !out.Fallback {
			allFallback = false
			break
		}
	}
	if allFallback && len(outputs) > 1 {
		// Collapse to the primary voice's scripted line.
		return outputs[len(outputs)-1:]
	}
	return outputs
}

func (p *TurnProcessor) invokeOne(ctx context.Context, sess *session.Session, persona *voice.Persona, directive *pacing.Directive, actionText, combatSummary, storyEvents string, questCatalog []*quest.Quest, prior []turn.VoiceOutput, log *slog.Logger) turn.VoiceOutput {
	fallback := turn.VoiceOutput{
		VoiceID:     persona.ID,
		Text:        persona.Fallback,
		ContentSafe: true,
		Fallback:    true,
	}

	messages, err := prompts.New().
		WithPersona(persona).
		WithSession(sess).
		WithDirective(directive).
		WithUserAction(actionText).
		WithCombatSummary(combatSummary).
		WithStoryEvents(storyEvents).
		WithPriorOutputs(prior).
		WithQuestCatalog(questCatalog).
		Build()
	if err != nil {
		log.Error("Failed to build voice prompt", "voice", persona.ID, "error", err)
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, p.voiceTimeout)
	defer cancel()

	resp, err := p.voices.Generate(callCtx, persona, messages)
	if err != nil {
		log.Warn("Voice generation failed, using scripted fallback",
			"voice", persona.ID, "error", err)
		return fallback
	}
	if strings.TrimSpace(resp.Text) == "" && resp.Fields == nil {
		log.Warn("Voice returned empty response, using scripted fallback",
			"voice", persona.ID)
		return fallback
	}

	return turn.VoiceOutput{
		VoiceID:     persona.ID,
		Text:        resp.Text,
		Fields:      resp.Fields,
		ContentSafe: resp.ContentSafe,
	}
}

// applyFields folds the voices' structured fields back into the session:
// a finished character sheet, offered quest choices, a spawned
// encounter, quest completion. Unknown fields are ignored. Returns any
// combat events produced by enemies winning initiative.
func (p *TurnProcessor) applyFields(ctx context.Context, sess *session.Session, outputs []turn.VoiceOutput, log *slog.Logger) ([]combat.Event, error) {
	var spawnEvents []combat.Event
	for _, out := range outputs {
		if out.Fallback || out.Fields == nil {
			continue
		}
		switch out.VoiceID {
		case voice.Interviewer:
			p.applyInterviewerFields(sess, out.Fields, log)
		case voice.Questgiver:
			p.applyQuestgiverFields(sess, out.Fields, log)
		case voice.Adjudicator:
			evs, err := p.applyAdjudicatorFields(ctx, sess, out.Fields, log)
			if err != nil {
				return spawnEvents, err
			}
			spawnEvents = append(spawnEvents, evs...)
		}
	}
	return spawnEvents, nil
}

func (p *TurnProcessor) applyInterviewerFields(sess *session.Session, fields map[string]interface{}, log *slog.Logger) {
	complete, _ := fields["creation_complete"].(bool)
	pcRaw, hasPC := fields["pc"].(map[string]interface{})
	if !complete || !hasPC {
		return
	}

	spec, err := decodePCSpec(pcRaw)
	if err != nil {
		log.Warn("Interviewer produced an unusable character sheet", "error", err)
		return
	}
	pc, err := actor.NewPCFromSpec(spec)
	if err != nil {
		log.Warn("Failed to build player character", "error", err)
		return
	}
	sess.PC = pc
	if err := sess.SetPhase(session.PhaseQuestSelection); err != nil {
		log.Error("Failed to advance past character creation", "error", err)
		return
	}
	log.Info("Character created", "pc_name", spec.Name, "pc_class", spec.Class)
}

func decodePCSpec(raw map[string]interface{}) (*actor.PCSpec, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var spec actor.PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("character sheet has no name")
	}
	if spec.ID == "" {
		spec.ID = strings.ToLower(strings.ReplaceAll(spec.Name, " ", "-"))
	}
	if spec.MaxHP <= 0 {
		return nil, fmt.Errorf("character sheet has no hit points")
	}
	if spec.HP <= 0 || spec.HP > spec.MaxHP {
		spec.HP = spec.MaxHP
	}
	if spec.AC <= 0 {
		spec.AC = 10
	}
	return &spec, nil
}

func (p *TurnProcessor) applyQuestgiverFields(sess *session.Session, fields map[string]interface{}, log *slog.Logger) {
	raw, ok := fields["choices"]
	if !ok {
		return
	}
	data, err := json.Marshal(raw)
	if err != nil {
		log.Warn("Quest giver produced unusable choices", "error", err)
		return
	}
	var choices []turn.Choice
	if err := json.Unmarshal(data, &choices); err != nil {
		log.Warn("Quest giver produced unusable choices", "error", err)
		return
	}
	if len(choices) == 0 {
		return
	}
	sess.PendingChoices = choices
	log.Info("Quest choices offered", "count", len(choices))
}

// applyAdjudicatorFields starts combat and marks quest completion. When
// an enemy wins initiative it strikes immediately; those events are
// returned for the turn's combat log.
func (p *TurnProcessor) applyAdjudicatorFields(ctx context.Context, sess *session.Session, fields map[string]interface{}, log *slog.Logger) ([]combat.Event, error) {
	if qc, ok := fields["quest_complete"].(bool); ok && qc && !sess.QuestComplete {
		sess.QuestComplete = true
		log.Info("Quest marked complete", "adventure_turn", sess.AdventureTurn)
	}

	encRaw, ok := fields["encounter"].(map[string]interface{})
	if !ok || sess.Encounter != nil || sess.PC == nil || sess.Phase != session.PhaseExploration {
		return nil, nil
	}

	enemyIDs := decodeStringSlice(encRaw["enemies"])
	combatants := []*combat.Combatant{sess.PC.Combatant()}
	for _, id := range enemyIDs {
		tmpl, err := p.storage.GetEnemy(ctx, id)
		if err != nil || tmpl == nil {
			log.Warn("Adjudicator named an unknown enemy, skipping", "enemy_id", id, "error", err)
			continue
		}
		combatants = append(combatants, tmpl.Spawn(1)...)
	}
	if len(combatants) < 2 {
		log.Warn("No valid enemies for encounter, combat not started")
		return nil, nil
	}

	enc, err := combat.NewEncounter(combatants...)
	if err != nil {
		log.Warn("Failed to assemble encounter", "error", err)
		return nil, nil
	}
	if err := enc.RollInitiative(p.roller); err != nil {
		return nil, &InvariantError{SessionID: sess.ID, Detail: fmt.Sprintf("initiative on fresh encounter: %v", err)}
	}

	var events []combat.Event
	if enc.Phase() == combat.PhaseEnemyTurn {
		events, err = enc.PlayEnemies(p.roller)
		if err != nil {
			return events, fmt.Errorf("enemy opening turn: %w", err)
		}
	}

	sess.Encounter = enc
	p.syncPlayerFromEncounter(sess, log)

	if enc.Resolved() {
		// An opening volley can end it before the player ever acts.
		return events, p.finishEncounter(sess, log)
	}

	if err := sess.SetPhase(session.PhaseCombat); err != nil {
		return events, &InvariantError{SessionID: sess.ID, Detail: err.Error()}
	}
	log.Info("Combat started", "combatants", len(combatants), "first_up", enc.Current().Name)
	return events, nil
}

func decodeStringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// filterOutputs masks profanity for ratings below R. This is
// presentation hygiene; content_safe flags pass through untouched.
func (p *TurnProcessor) filterOutputs(sess *session.Session, outputs []turn.VoiceOutput) {
	if !textfilter.ShouldFilterContent(sess.Rating) {
		return
	}
	for i := range outputs {
		outputs[i].Text = p.filter.FilterText(outputs[i].Text, sess.Rating)
	}
}

// recordHistory appends the player action and every voice line to the
// session transcript.
func (p *TurnProcessor) recordHistory(sess *session.Session, actionText string, outputs []turn.VoiceOutput) {
	if actionText != "" {
		sess.AppendHistory(turn.Message{Role: turn.RoleUser, Content: actionText})
	}
	for _, out := range outputs {
		if strings.TrimSpace(out.Text) == "" {
			continue
		}
		name := out.VoiceID
		if persona, err := p.roster.Get(out.VoiceID); err == nil {
			name = persona.Name
		}
		sess.AppendHistory(turn.Message{
			Role:    turn.RoleAgent,
			Content: turn.FormatWithSpeaker(out.Text, name),
		})
	}
}

func describeCombatAction(a combat.Action) string {
	switch a.Type {
	case combat.ActionAttack:
		if a.TargetID != "" {
			return fmt.Sprintf("I attack %s.", a.TargetID)
		}
		return "I attack."
	case combat.ActionDefend:
		return "I take a defensive stance."
	case combat.ActionFlee:
		return "I try to flee."
	default:
		return string(a.Type)
	}
}
