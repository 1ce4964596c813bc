package combat

import (
	"errors"
	"fmt"
)

// ErrNotYourTurn is the sentinel wrapped by TurnError.
var ErrNotYourTurn = errors.New("not your turn")

// ErrInvalidTarget marks combat actions aimed at a missing, defeated, or
// friendly combatant.
var ErrInvalidTarget = errors.New("invalid target")

// TurnError reports a combat action attempted outside the actor's turn.
// The encounter state is unchanged when it is returned.
type TurnError struct {
	Actor string
	Phase Phase
}

func (e *TurnError) Error() string {
	if e.Actor == "" {
		return fmt.Sprintf("combat action rejected during %s: not your turn", e.Phase)
	}
	return fmt.Sprintf("combat action by %s rejected during %s: not your turn", e.Actor, e.Phase)
}

func (e *TurnError) Unwrap() error {
	return ErrNotYourTurn
}

// ActionType enumerates player combat intents.
type ActionType string

const (
	ActionAttack ActionType = "attack"
	ActionDefend ActionType = "defend"
	ActionFlee   ActionType = "flee"
)

// Action is one player combat intent. TargetID is optional for attacks;
// the first living enemy is targeted when it is empty.
type Action struct {
	Type     ActionType `json:"type"`
	TargetID string     `json:"target_id,omitempty"`
}

// Combatant is one participant in an encounter. Mods keys are "attack",
// "damage" and "dexterity"; missing keys count as zero.
type Combatant struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"max_hp"`
	Defense    int            `json:"defense"`
	DamageDice string         `json:"damage_dice,omitempty"`
	Mods       map[string]int `json:"mods,omitempty"`
	Initiative int            `json:"initiative,omitempty"`
	Defending  bool           `json:"defending,omitempty"`
}

// Mod returns the named modifier, or zero when unset.
func (c *Combatant) Mod(name string) int {
	if c.Mods == nil {
		return 0
	}
	return c.Mods[name]
}

// Alive reports whether the combatant can still act or be targeted.
func (c *Combatant) Alive() bool {
	return c.HP > 0
}

// ApplyDamage subtracts damage from HP, halving it (rounded down) when the
// combatant is in a defensive stance. The stance absorbs one hit only.
// Returns the damage actually dealt. HP never drops below zero.
func (c *Combatant) ApplyDamage(n int) int {
	if n < 0 {
		n = 0
	}
	if c.Defending {
		n /= 2
		c.Defending = false
	}
	if n > c.HP {
		n = c.HP
	}
	c.HP -= n
	return n
}
