package combat

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

// Encounter is one combat between the player and one or more enemies.
// Turn order is fixed at initiative; only the index moves. The struct is
// JSON-serializable so it can persist inside a session; rolls come from a
// Roller passed into each operation rather than stored state.
type Encounter struct {
	Combatants []*Combatant `json:"combatants"`
	TurnOrder  []string     `json:"turn_order,omitempty"`
	TurnIndex  int          `json:"turn_index"`
	Round      int          `json:"round,omitempty"`
	Stage      Stage        `json:"stage"`
	Victory    bool         `json:"victory,omitempty"`
	Fled       bool         `json:"fled,omitempty"`
	Events     []Event      `json:"events,omitempty"`
}

// NewEncounter validates combatants and returns an encounter in the setup
// stage. Exactly one player combatant and at least one enemy are required.
// Empty damage dice default to unarmed 1d4.
func NewEncounter(combatants ...*Combatant) (*Encounter, error) {
	players, enemies := 0, 0
	seen := make(map[string]bool, len(combatants))
	for _, c := range combatants {
		if c.ID == "" {
			return nil, fmt.Errorf("combatant missing id")
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate combatant id %q", c.ID)
		}
		seen[c.ID] = true
		switch c.Kind {
		case KindPlayer:
			players++
		case KindEnemy:
			enemies++
		default:
			return nil, fmt.Errorf("combatant %s has unknown kind %q", c.ID, c.Kind)
		}
		if c.DamageDice == "" {
			c.DamageDice = "1d4"
		}
		if _, _, _, err := dice.Parse(c.DamageDice); err != nil {
			return nil, fmt.Errorf("combatant %s: %w", c.ID, err)
		}
	}
	if players != 1 {
		return nil, fmt.Errorf("encounter requires exactly one player combatant, got %d", players)
	}
	if enemies < 1 {
		return nil, fmt.Errorf("encounter requires at least one enemy")
	}
	return &Encounter{
		Combatants: combatants,
		Stage:      StageSetup,
	}, nil
}

// Phase derives whose turn it is from the stage and the current turn-order
// entry.
func (e *Encounter) Phase() Phase {
	switch e.Stage {
	case StageSetup:
		return PhaseSetup
	case StageResolved:
		return PhaseResolved
	}
	if c := e.Current(); c != nil && c.Kind == KindPlayer {
		return PhasePlayerTurn
	}
	return PhaseEnemyTurn
}

// Resolved reports whether the encounter is over.
func (e *Encounter) Resolved() bool {
	return e.Stage == StageResolved
}

// Current returns the combatant whose turn it is, or nil outside the
// active stage.
func (e *Encounter) Current() *Combatant {
	if e.Stage != StageActive || e.TurnIndex < 0 || e.TurnIndex >= len(e.TurnOrder) {
		return nil
	}
	return e.combatant(e.TurnOrder[e.TurnIndex])
}

// RollInitiative rolls d20 + dexterity for every combatant and fixes the
// turn order by descending initiative, ties broken by the order combatants
// were given. The encounter becomes active. Rolling twice is a TurnError.
func (e *Encounter) RollInitiative(r *dice.Roller) error {
	if e.Stage != StageSetup {
		return &TurnError{Phase: e.Phase()}
	}
	for _, c := range e.Combatants {
		c.Initiative = r.RollDie(20) + c.Mod("dexterity")
	}
	order := make([]string, len(e.Combatants))
	idx := make([]int, len(e.Combatants))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return e.Combatants[idx[a]].Initiative > e.Combatants[idx[b]].Initiative
	})
	for i, j := range idx {
		order[i] = e.Combatants[j].ID
	}
	e.TurnOrder = order
	e.TurnIndex = 0
	e.Round = 1
	e.Stage = StageActive
	return nil
}

// PlayerAct applies one player action, then auto-plays enemy turns until
// it is the player's turn again or the encounter resolves. All resulting
// events are returned in order and appended to the encounter log. When it
// is not the player's turn the state is unchanged and a TurnError is
// returned.
func (e *Encounter) PlayerAct(r *dice.Roller, action Action) ([]Event, error) {
	player := e.player()
	if e.Phase() != PhasePlayerTurn {
		actor := ""
		if player != nil {
			actor = player.ID
		}
		return nil, &TurnError{Actor: actor, Phase: e.Phase()}
	}

	// A stance held since the previous turn expires now.
	player.Defending = false

	var events []Event
	switch action.Type {
	case ActionAttack:
		target, err := e.resolveTarget(action.TargetID)
		if err != nil {
			return nil, err
		}
		evs, err := e.attack(r, player, target)
		if err != nil {
			return nil, err
		}
		events = evs
	case ActionDefend:
		player.Defending = true
		events = []Event{{Actor: player.Name, Action: ActionDefend, Success: true}}
	case ActionFlee:
		events = e.flee(r, player)
	default:
		return nil, fmt.Errorf("unknown combat action %q", action.Type)
	}

	e.checkResolution()
	if e.Stage == StageActive {
		e.advance()
		enemyEvents, err := e.playEnemies(r)
		events = append(events, enemyEvents...)
		if err != nil {
			e.Events = append(e.Events, events...)
			return events, err
		}
	}
	e.Events = append(e.Events, events...)
	return events, nil
}

// PlayEnemies runs enemy turns until the player is up or the encounter
// resolves. The engine calls this right after initiative when an enemy won
// the order.
func (e *Encounter) PlayEnemies(r *dice.Roller) ([]Event, error) {
	events, err := e.playEnemies(r)
	e.Events = append(e.Events, events...)
	return events, err
}

func (e *Encounter) playEnemies(r *dice.Roller) ([]Event, error) {
	var events []Event
	for e.Stage == StageActive {
		enemy := e.Current()
		if enemy == nil || enemy.Kind != KindEnemy {
			break
		}
		enemy.Defending = false
		evs, err := e.attack(r, enemy, e.player())
		events = append(events, evs...)
		if err != nil {
			return events, err
		}
		e.checkResolution()
		if e.Stage != StageActive {
			break
		}
		e.advance()
	}
	return events, nil
}

func (e *Encounter) attack(r *dice.Roller, attacker, target *Combatant) ([]Event, error) {
	mod := attacker.Mod("attack")
	die := r.RollDie(20)
	ev := Event{
		Actor:  attacker.Name,
		Action: ActionAttack,
		Target: target.Name,
		Roll: &dice.Roll{
			Notation: "1d20",
			Rolls:    []int{die},
			Modifier: mod,
			Total:    die + mod,
		},
		Against: target.Defense,
	}
	if ev.Roll.Total < target.Defense {
		return []Event{ev}, nil
	}

	ev.Success = true
	dmg, err := r.Roll(attacker.DamageDice)
	if err != nil {
		return nil, fmt.Errorf("damage roll for %s: %w", attacker.ID, err)
	}
	raw := dmg.Total + attacker.Mod("damage")
	wasDefending := target.Defending
	ev.Damage = &dmg
	ev.Dealt = target.ApplyDamage(raw)
	switch {
	case !target.Alive():
		ev.Note = fmt.Sprintf("%s is defeated.", target.Name)
	case wasDefending:
		ev.Note = fmt.Sprintf("%s's stance absorbs part of the blow.", target.Name)
	}
	return []Event{ev}, nil
}

func (e *Encounter) flee(r *dice.Roller, player *Combatant) []Event {
	pursuer := e.fastestLivingEnemy()
	myDie := r.RollDie(20)
	theirDie := r.RollDie(20)
	mine := myDie + player.Mod("dexterity")
	theirs := theirDie + pursuer.Mod("dexterity")
	ev := Event{
		Actor:  player.Name,
		Action: ActionFlee,
		Target: pursuer.Name,
		Roll: &dice.Roll{
			Notation: "1d20",
			Rolls:    []int{myDie},
			Modifier: player.Mod("dexterity"),
			Total:    mine,
		},
		Against: theirs,
		Success: mine > theirs,
	}
	if ev.Success {
		e.Stage = StageResolved
		e.Fled = true
		ev.Note = fmt.Sprintf("%s escapes the fight.", player.Name)
	}
	return []Event{ev}
}

func (e *Encounter) resolveTarget(id string) (*Combatant, error) {
	if id == "" {
		for _, c := range e.Combatants {
			if c.Kind == KindEnemy && c.Alive() {
				return c, nil
			}
		}
		return nil, fmt.Errorf("no living enemy: %w", ErrInvalidTarget)
	}
	c := e.combatant(id)
	if c == nil {
		return nil, fmt.Errorf("target %q not in encounter: %w", id, ErrInvalidTarget)
	}
	if c.Kind != KindEnemy {
		return nil, fmt.Errorf("target %q is not an enemy: %w", id, ErrInvalidTarget)
	}
	if !c.Alive() {
		return nil, fmt.Errorf("target %q is already defeated: %w", id, ErrInvalidTarget)
	}
	return c, nil
}

func (e *Encounter) checkResolution() {
	if e.Stage != StageActive {
		return
	}
	if p := e.player(); p != nil && !p.Alive() {
		e.Stage = StageResolved
		return
	}
	for _, c := range e.Combatants {
		if c.Kind == KindEnemy && c.Alive() {
			return
		}
	}
	e.Stage = StageResolved
	e.Victory = true
}

// advance moves the turn index to the next living combatant, skipping
// defeated ones. Round increments when the order wraps.
func (e *Encounter) advance() {
	n := len(e.TurnOrder)
	for i := 0; i < n; i++ {
		e.TurnIndex = (e.TurnIndex + 1) % n
		if e.TurnIndex == 0 {
			e.Round++
		}
		if c := e.combatant(e.TurnOrder[e.TurnIndex]); c != nil && c.Alive() {
			return
		}
	}
}

func (e *Encounter) combatant(id string) *Combatant {
	for _, c := range e.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (e *Encounter) player() *Combatant {
	for _, c := range e.Combatants {
		if c.Kind == KindPlayer {
			return c
		}
	}
	return nil
}

func (e *Encounter) fastestLivingEnemy() *Combatant {
	var fastest *Combatant
	for _, c := range e.Combatants {
		if c.Kind != KindEnemy || !c.Alive() {
			continue
		}
		if fastest == nil || c.Mod("dexterity") > fastest.Mod("dexterity") {
			fastest = c
		}
	}
	return fastest
}

// LivingEnemies returns enemies still standing, for narration context and
// target menus.
func (e *Encounter) LivingEnemies() []*Combatant {
	var out []*Combatant
	for _, c := range e.Combatants {
		if c.Kind == KindEnemy && c.Alive() {
			out = append(out, c)
		}
	}
	return out
}
