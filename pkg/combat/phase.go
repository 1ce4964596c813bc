// Package combat implements a deterministic d20 encounter state machine.
// The machine produces structured mechanical events; it never generates
// prose. Narration of combat outcomes belongs to the voice layer.
package combat

// Kind distinguishes the player combatant from enemies.
type Kind string

const (
	KindPlayer Kind = "player"
	KindEnemy  Kind = "enemy"
)

// Stage is the stored lifecycle position of an encounter.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageActive   Stage = "active"
	StageResolved Stage = "resolved"
)

// Phase is the derived view of whose turn it is. It is computed from the
// turn order and stage, never stored.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlayerTurn
	PhaseEnemyTurn
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseEnemyTurn:
		return "enemy_turn"
	case PhaseResolved:
		return "resolved"
	}
	return "unknown"
}
