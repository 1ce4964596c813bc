package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// scriptSource replays fixed die faces and probability draws. Intn
// values are zero-based (17 rolls an 18 on a d20); exhausted scripts
// roll minimum faces and miss every probability draw.
type scriptSource struct {
	ints   []int
	floats []float64
	i, f   int
}

func (s *scriptSource) Intn(n int) int {
	if s.i < len(s.ints) {
		v := s.ints[s.i]
		s.i++
		if v >= n {
			v = n - 1
		}
		return v
	}
	return 0
}

func (s *scriptSource) Float64() float64 {
	if s.f < len(s.floats) {
		v := s.floats[s.f]
		s.f++
		return v
	}
	return 1.0
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProcessor(t *testing.T, src dice.Source) (*TurnProcessor, *storage.Mock, *services.MockVoiceService) {
	t.Helper()
	if src == nil {
		src = &scriptSource{}
	}
	roller := dice.NewRoller(src)
	store := storage.NewMock()
	voices := services.NewMockVoiceService()
	p := NewTurnProcessor(store, voices, voice.DefaultRoster(), voice.NewRouter(roller), roller, testLogger())
	return p, store, voices
}

func testPC(t *testing.T) *actor.PC {
	t.Helper()
	pc, err := actor.NewPCFromSpec(&actor.PCSpec{
		ID:         "ishmael",
		Name:       "Ishmael",
		Class:      "Ranger",
		Level:      3,
		MaxHP:      20,
		HP:         20,
		AC:         12,
		DamageDice: "2d6",
		Stats: actor.Stats5e{
			Strength: 14, Dexterity: 12, Constitution: 12,
			Intelligence: 10, Wisdom: 10, Charisma: 10,
		},
	})
	if err != nil {
		t.Fatalf("failed to build test PC: %v", err)
	}
	return pc
}

// explorationSession returns a saved session mid-adventure.
func explorationSession(t *testing.T, store *storage.Mock) *session.Session {
	t.Helper()
	sess := session.New(50)
	sess.PC = testPC(t)
	sess.Quest = &quest.Quest{ID: "wolves", Title: "The Wolves of Harrow Vale", Objective: "Drive off the pack"}
	if err := sess.SetPhase(session.PhaseExploration); err != nil {
		t.Fatalf("failed to set phase: %v", err)
	}
	if err := store.SaveSession(context.Background(), sess); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	return sess
}

func TestProcessTurn_NarratorAlone(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Mist clings to the valley floor.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I look around"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if len(resp.Outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(resp.Outputs))
	}
	if resp.Outputs[0].VoiceID != voice.Narrator {
		t.Errorf("expected narrator, got %s", resp.Outputs[0].VoiceID)
	}
	if resp.Outputs[0].Fallback {
		t.Error("expected a generated line, not a fallback")
	}
	if resp.AdventureTurn != 2 {
		t.Errorf("expected adventure turn 2, got %d", resp.AdventureTurn)
	}
	if resp.TurnCount != 1 {
		t.Errorf("expected turn count 1, got %d", resp.TurnCount)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.RecentVoices[len(saved.RecentVoices)-1] != voice.Narrator {
		t.Errorf("expected narrator recorded as primary voice, got %v", saved.RecentVoices)
	}
}

func TestProcessTurn_KeywordRoutesAdjudicator(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceResponse(voice.Adjudicator, &turn.VoiceResponse{Text: "Steel rings on steel.", ContentSafe: true})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The goblin staggers back.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I attack the goblin"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if len(resp.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(resp.Outputs))
	}
	if resp.Outputs[0].VoiceID != voice.Adjudicator || resp.Outputs[1].VoiceID != voice.Narrator {
		t.Errorf("expected [adjudicator, narrator], got [%s, %s]", resp.Outputs[0].VoiceID, resp.Outputs[1].VoiceID)
	}

	// The narrator sees the adjudicator's output.
	calls := voices.GeneratedVoices()
	if len(calls) != 2 || calls[0] != voice.Adjudicator || calls[1] != voice.Narrator {
		t.Errorf("expected sequential adjudicator then narrator calls, got %v", calls)
	}
}

func TestProcessTurn_GenerationFallback(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceError(voice.Narrator, errors.New("backend timeout"))

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I listen at the door"})
	if err != nil {
		t.Fatalf("a failed voice must not fail the turn: %v", err)
	}

	if len(resp.Outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(resp.Outputs))
	}
	out := resp.Outputs[0]
	if !out.Fallback {
		t.Error("expected fallback flag set")
	}
	if out.Text == "" {
		t.Error("fallback must carry the scripted line")
	}
	if resp.TurnCount != 1 {
		t.Errorf("fallback turn still counts, got turn count %d", resp.TurnCount)
	}
}

func TestProcessTurn_AllVoicesFailCollapses(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetGenerateError(errors.New("provider down"))

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I attack the shadows"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if len(resp.Outputs) != 1 {
		t.Fatalf("all-fail should collapse to the primary fallback, got %d outputs", len(resp.Outputs))
	}
	if resp.Outputs[0].VoiceID != voice.Narrator || !resp.Outputs[0].Fallback {
		t.Errorf("expected narrator fallback, got %+v", resp.Outputs[0])
	}
}

func TestProcessTurn_SessionNotFound(t *testing.T) {
	p, _, _ := newTestProcessor(t, nil)

	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: uuid.New(), Action: "hello"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessTurn_EndedSession(t *testing.T) {
	p, store, _ := newTestProcessor(t, nil)
	sess := session.New(50)
	sess.Phase = session.PhaseEnded
	_ = store.SaveSession(context.Background(), sess)

	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "encore"})
	if !errors.Is(err, ErrSessionEnded) {
		t.Errorf("expected ErrSessionEnded, got %v", err)
	}
}

func TestProcessTurn_InvalidRequest(t *testing.T) {
	p, _, _ := newTestProcessor(t, nil)
	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: uuid.New()})
	if err == nil {
		t.Fatal("expected validation error for empty request")
	}
}

// activeEncounter puts the player first in an active two-combatant
// encounter.
func activeEncounter(t *testing.T, sess *session.Session, enemyHP int) *combat.Encounter {
	t.Helper()
	enemy := &combat.Combatant{
		ID: "goblin", Name: "Goblin", Kind: combat.KindEnemy,
		HP: enemyHP, MaxHP: enemyHP, Defense: 10, DamageDice: "1d6",
	}
	enc, err := combat.NewEncounter(sess.PC.Combatant(), enemy)
	if err != nil {
		t.Fatalf("failed to build encounter: %v", err)
	}
	enc.TurnOrder = []string{sess.PC.Spec.ID, "goblin"}
	enc.TurnIndex = 0
	enc.Round = 1
	enc.Stage = combat.StageActive
	return enc
}

func TestProcessTurn_CombatKillResolves(t *testing.T) {
	// Attack roll 19 hits defense 10; 2d6 damage rolls 6+6 kill the
	// 10 HP goblin outright.
	src := &scriptSource{ints: []int{18, 5, 5}}
	p, store, voices := newTestProcessor(t, src)
	sess := explorationSession(t, store)
	sess.Encounter = activeEncounter(t, sess, 10)
	if err := sess.SetPhase(session.PhaseCombat); err != nil {
		t.Fatalf("failed to enter combat: %v", err)
	}
	_ = store.SaveSession(context.Background(), sess)
	voices.SetVoiceResponse(voice.Adjudicator, &turn.VoiceResponse{Text: "A clean hit.", ContentSafe: true})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The goblin falls.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{
		SessionID: sess.ID,
		Combat:    &combat.Action{Type: combat.ActionAttack},
	})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if len(resp.CombatLog) == 0 {
		t.Fatal("expected combat events in the response")
	}
	ev := resp.CombatLog[0]
	if !ev.Success || ev.Dealt != 10 {
		t.Errorf("expected a killing hit for 10, got success=%v dealt=%d", ev.Success, ev.Dealt)
	}
	if resp.Phase != string(session.PhaseExploration) {
		t.Errorf("victory should return the session to exploration, got %s", resp.Phase)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.Encounter != nil {
		t.Error("resolved encounter must be discarded")
	}
}

func TestProcessTurn_CombatRequiresCombatAction(t *testing.T) {
	p, store, _ := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	sess.Encounter = activeEncounter(t, sess, 10)
	_ = sess.SetPhase(session.PhaseCombat)
	_ = store.SaveSession(context.Background(), sess)

	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I recite a poem"})
	if !errors.Is(err, ErrCombatActionRequired) {
		t.Errorf("expected ErrCombatActionRequired, got %v", err)
	}
}

func TestProcessTurn_CombatActionOutsideCombat(t *testing.T) {
	p, store, _ := newTestProcessor(t, nil)
	sess := explorationSession(t, store)

	_, err := p.ProcessTurn(context.Background(), turn.Request{
		SessionID: sess.ID,
		Combat:    &combat.Action{Type: combat.ActionAttack},
	})
	if !errors.Is(err, ErrCombatActionRequired) {
		t.Errorf("expected rejection outside combat, got %v", err)
	}
}

func TestProcessTurn_OutOfTurnRejectedWithoutSideEffects(t *testing.T) {
	p, store, _ := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	enc := activeEncounter(t, sess, 10)
	enc.TurnIndex = 1 // goblin's turn
	sess.Encounter = enc
	_ = sess.SetPhase(session.PhaseCombat)
	_ = store.SaveSession(context.Background(), sess)

	_, err := p.ProcessTurn(context.Background(), turn.Request{
		SessionID: sess.ID,
		Combat:    &combat.Action{Type: combat.ActionAttack},
	})
	var turnErr *combat.TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected TurnError, got %v", err)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.TurnCount != 0 {
		t.Errorf("rejected action must not consume a turn, got turn count %d", saved.TurnCount)
	}
	if saved.Encounter == nil || saved.Encounter.TurnIndex != 1 {
		t.Error("rejected action must leave the encounter unchanged")
	}
}

func TestProcessTurn_MandatoryClosureAtBudget(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	sess.AdventureTurn = 50
	sess.StoryPhase = "denouement"
	_ = store.SaveSession(context.Background(), sess)
	voices.SetVoiceResponse(voice.Chronicler, &turn.VoiceResponse{Text: "And so the tale ends.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I press on"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if len(resp.Outputs) != 1 || resp.Outputs[0].VoiceID != voice.Chronicler {
		t.Fatalf("budget exhaustion must route to the chronicler, got %+v", resp.Outputs)
	}
	if !resp.ClosureEligible {
		t.Error("closure must be eligible at the turn cap regardless of quest state")
	}
	if resp.Phase != string(session.PhaseEnded) {
		t.Errorf("expected session ended after the chronicler, got %s", resp.Phase)
	}
	if resp.AdventureTurn > 50 {
		t.Errorf("adventure turn must never exceed the budget, got %d", resp.AdventureTurn)
	}
}

func TestProcessTurn_InterviewerCreatesCharacter(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := session.New(50)
	_ = store.SaveSession(context.Background(), sess)

	voices.SetVoiceResponse(voice.Interviewer, &turn.VoiceResponse{
		Text:        "Then it is settled. Welcome, Mira of the Reed Coast.",
		ContentSafe: true,
		Fields: map[string]interface{}{
			"creation_complete": true,
			"pc": map[string]interface{}{
				"name": "Mira", "class": "Rogue", "race": "Human",
				"hp": float64(14), "max_hp": float64(14), "ac": float64(13),
				"damage_dice": "1d6",
				"stats": map[string]interface{}{
					"strength": float64(10), "dexterity": float64(16), "constitution": float64(12),
					"intelligence": float64(12), "wisdom": float64(10), "charisma": float64(14),
				},
			},
		},
	})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "Yes, that's her."})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if resp.Outputs[0].VoiceID != voice.Interviewer {
		t.Errorf("character creation routes only the interviewer, got %s", resp.Outputs[0].VoiceID)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.PC == nil {
		t.Fatal("expected the PC to be built from interviewer fields")
	}
	if saved.PC.Spec.Name != "Mira" {
		t.Errorf("expected PC Mira, got %s", saved.PC.Spec.Name)
	}
	if saved.Phase != session.PhaseQuestSelection {
		t.Errorf("expected quest selection after creation, got %s", saved.Phase)
	}
}

func TestProcessTurn_QuestSelectionFlow(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	store.AddQuest(&quest.Quest{ID: "wolves", Title: "The Wolves of Harrow Vale", Hook: "The vale is hunted."})
	sess := session.New(50)
	sess.PC = testPC(t)
	_ = sess.SetPhase(session.PhaseQuestSelection)
	_ = store.SaveSession(context.Background(), sess)

	voices.SetVoiceResponse(voice.Questgiver, &turn.VoiceResponse{
		Text:        "Work is scarce, but the vale pays in silver.",
		ContentSafe: true,
		Fields: map[string]interface{}{
			"choices": []interface{}{
				map[string]interface{}{"index": float64(0), "label": "Hunt the wolves", "quest_id": "wolves"},
			},
		},
	})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "What work is there?"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].QuestID != "wolves" {
		t.Fatalf("expected one wolf-quest choice, got %+v", resp.Choices)
	}

	// Pick it.
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The road north is cold.", ContentSafe: true})
	idx := 0
	resp, err = p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Choice: &idx})
	if err != nil {
		t.Fatalf("choice turn failed: %v", err)
	}
	if resp.Phase != string(session.PhaseExploration) {
		t.Errorf("expected exploration after choosing, got %s", resp.Phase)
	}
	if resp.Outputs[len(resp.Outputs)-1].VoiceID != voice.Narrator {
		t.Error("the narrator should open the chosen quest")
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.Quest == nil || saved.Quest.ID != "wolves" {
		t.Errorf("expected the wolves quest active, got %+v", saved.Quest)
	}
	if len(saved.PendingChoices) != 0 {
		t.Error("pending choices must clear once picked")
	}
}

func TestProcessTurn_InvalidChoice(t *testing.T) {
	p, store, _ := newTestProcessor(t, nil)
	sess := session.New(50)
	_ = sess.SetPhase(session.PhaseQuestSelection)
	sess.PendingChoices = []turn.Choice{{Index: 0, Label: "Hunt", QuestID: "wolves"}}
	_ = store.SaveSession(context.Background(), sess)

	idx := 7
	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Choice: &idx})
	if !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestProcessTurn_AdjudicatorSpawnsCombat(t *testing.T) {
	// Initiative: player rolls 15, goblin rolls 3 — the player is up.
	src := &scriptSource{ints: []int{14, 2}}
	p, store, voices := newTestProcessor(t, src)
	store.AddEnemy(&quest.EnemyTemplate{ID: "goblin", Name: "Goblin", HP: 7, Defense: 11, DamageDice: "1d6"})
	sess := explorationSession(t, store)

	voices.SetVoiceResponse(voice.Adjudicator, &turn.VoiceResponse{
		Text:        "Blades out. Roll for initiative.",
		ContentSafe: true,
		Fields: map[string]interface{}{
			"encounter":      map[string]interface{}{"enemies": []interface{}{"goblin"}},
			"quest_complete": false,
		},
	})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The goblin snarls.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I attack the goblin"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if resp.Phase != string(session.PhaseCombat) {
		t.Fatalf("expected combat phase, got %s", resp.Phase)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	enc := saved.Encounter
	if enc == nil {
		t.Fatal("expected an encounter on the session")
	}
	if enc.Phase() != combat.PhasePlayerTurn {
		t.Errorf("player won initiative, expected PlayerTurn, got %s", enc.Phase())
	}
	if len(enc.TurnOrder) != 2 {
		t.Errorf("expected 2 combatants in turn order, got %d", len(enc.TurnOrder))
	}
}

func TestProcessTurn_EnemyInitiativeStrikesFirst(t *testing.T) {
	// Initiative: player 2, goblin 18; goblin attack roll 19 hits AC 12,
	// damage 1d6 rolls 4.
	src := &scriptSource{ints: []int{1, 17, 18, 3}}
	p, store, voices := newTestProcessor(t, src)
	store.AddEnemy(&quest.EnemyTemplate{ID: "goblin", Name: "Goblin", HP: 7, Defense: 11, DamageDice: "1d6"})
	sess := explorationSession(t, store)

	voices.SetVoiceResponse(voice.Adjudicator, &turn.VoiceResponse{
		Text:        "They are on you before you can draw.",
		ContentSafe: true,
		Fields: map[string]interface{}{
			"encounter": map[string]interface{}{"enemies": []interface{}{"goblin"}},
		},
	})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Pain flares.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I attack the goblin"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if len(resp.CombatLog) == 0 {
		t.Fatal("expected the goblin's opening attack in the combat log")
	}
	ev := resp.CombatLog[0]
	if ev.Actor != "Goblin" || !ev.Success || ev.Dealt != 4 {
		t.Errorf("expected goblin hit for 4, got %+v", ev)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.PC.Spec.HP != 16 {
		t.Errorf("expected PC at 16 HP after the opening hit, got %d", saved.PC.Spec.HP)
	}
	if saved.Encounter.Phase() != combat.PhasePlayerTurn {
		t.Errorf("after the opening volley it is the player's turn, got %s", saved.Encounter.Phase())
	}
}

func TestProcessTurn_QuestCompleteMarksSession(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceResponse(voice.Adjudicator, &turn.VoiceResponse{
		Text:        "The last wolf breaks and runs. The vale is quiet.",
		ContentSafe: true,
		Fields:      map[string]interface{}{"quest_complete": true},
	})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Quiet settles.", ContentSafe: true})

	_, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I strike at the alpha"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if !saved.QuestComplete {
		t.Error("expected quest marked complete")
	}
}

func TestProcessTurn_ComicReliefResetsCooldown(t *testing.T) {
	// Cooldown satisfied and the draw lands.
	src := &scriptSource{floats: []float64{0.05}}
	p, store, voices := newTestProcessor(t, src)
	sess := explorationSession(t, store)
	sess.SinceComic = 4
	_ = store.SaveSession(context.Background(), sess)
	voices.SetVoiceResponse(voice.Jester, &turn.VoiceResponse{Text: "Lovely weather for an ambush.", ContentSafe: true})
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The trees say nothing.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I walk on"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if len(resp.Outputs) != 2 || resp.Outputs[0].VoiceID != voice.Jester {
		t.Fatalf("expected jester before narrator, got %+v", resp.Outputs)
	}
	if resp.Outputs[1].VoiceID != voice.Narrator {
		t.Error("the narrator always speaks last")
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.SinceComic != 0 {
		t.Errorf("jester inclusion must reset the cooldown, got %d", saved.SinceComic)
	}
}

func TestProcessTurn_ProfanityFilteredByRating(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	sess.Rating = session.RatingPG
	_ = store.SaveSession(context.Background(), sess)
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Damn, that was close.", ContentSafe: true})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I duck"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if resp.Outputs[0].Text != "Dang, that was close." {
		t.Errorf("expected filtered text, got %q", resp.Outputs[0].Text)
	}
}

func TestProcessTurn_ContentSafeFlagPassesThrough(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "The story takes a gentler path.", ContentSafe: false})

	resp, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "Something disallowed"})
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if resp.Outputs[0].ContentSafe {
		t.Error("content_safe=false must pass through without re-checking")
	}
	if resp.Outputs[0].Text != "The story takes a gentler path." {
		t.Error("redirected text must be delivered as-is")
	}
}

func TestProcessTurn_SequentialTurnsshareHistory(t *testing.T) {
	p, store, voices := newTestProcessor(t, nil)
	sess := explorationSession(t, store)
	voices.SetVoiceResponse(voice.Narrator, &turn.VoiceResponse{Text: "Step by step.", ContentSafe: true})

	for i := 0; i < 3; i++ {
		if _, err := p.ProcessTurn(context.Background(), turn.Request{SessionID: sess.ID, Action: "I walk"}); err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
	}

	saved, _ := store.LoadSession(context.Background(), sess.ID)
	if saved.TurnCount != 3 {
		t.Errorf("expected 3 turns, got %d", saved.TurnCount)
	}
	// Each turn adds the action and the narrator line.
	if len(saved.History) != 6 {
		t.Errorf("expected 6 history messages, got %d", len(saved.History))
	}
}
