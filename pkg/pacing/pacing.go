// Package pacing computes the position of a session inside its five-phase
// story arc: the current phase, how urgent progress toward an ending is,
// and whether the adventure may close. Everything here is pure computation
// over turn counts; the engine owns when to act on it.
package pacing

// StoryPhase is the adventure arc position. Phases only ever move forward.
type StoryPhase string

const (
	StorySetup        StoryPhase = "setup"
	StoryRisingAction StoryPhase = "rising_action"
	StoryMidpoint     StoryPhase = "midpoint"
	StoryClimax       StoryPhase = "climax"
	StoryDenouement   StoryPhase = "denouement"
)

var storyPhaseOrder = []StoryPhase{
	StorySetup,
	StoryRisingAction,
	StoryMidpoint,
	StoryClimax,
	StoryDenouement,
}

func (p StoryPhase) ord() int {
	for i, sp := range storyPhaseOrder {
		if sp == p {
			return i
		}
	}
	return 0
}

// Before reports whether p precedes other in the arc.
func (p StoryPhase) Before(other StoryPhase) bool {
	return p.ord() < other.ord()
}

// Next returns the following phase. Denouement is terminal.
func (p StoryPhase) Next() StoryPhase {
	i := p.ord()
	if i+1 < len(storyPhaseOrder) {
		return storyPhaseOrder[i+1]
	}
	return p
}

// Urgency advises the voices how hard to push toward an ending. It gates
// nothing by itself.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Directive is the per-turn pacing context injected into voice prompts.
type Directive struct {
	Phase           StoryPhase `json:"phase"`
	TurnsRemaining  int        `json:"turns_remaining"`
	Urgency         Urgency    `json:"urgency"`
	Guidance        string     `json:"guidance"`
	ClosureEligible bool       `json:"closure_eligible"`
}

// Bands give the fraction of the turn budget at which each later phase
// begins. They stay configurable so a different budget keeps its arc
// shape.
type Bands struct {
	RisingAction float64
	Midpoint     float64
	Climax       float64
	Denouement   float64
}

// DefaultBands shape a 50-turn adventure: setup through turn 4, rising
// action to 19, midpoint to 29, climax to 44, denouement after.
var DefaultBands = Bands{
	RisingAction: 0.10,
	Midpoint:     0.40,
	Climax:       0.60,
	Denouement:   0.90,
}

const (
	DefaultMaxTurns       = 50
	DefaultMinClosureTurn = 25
)

// Controller maps adventure turns onto the arc.
type Controller struct {
	MaxTurns       int
	MinClosureTurn int
	Bands          Bands
}

// NewController returns a Controller over the given turn budget. A
// non-positive budget falls back to the default.
func NewController(maxTurns int) *Controller {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Controller{
		MaxTurns:       maxTurns,
		MinClosureTurn: DefaultMinClosureTurn,
		Bands:          DefaultBands,
	}
}

func (c *Controller) bandFor(turn int) StoryPhase {
	f := float64(turn) / float64(c.MaxTurns)
	switch {
	case f < c.Bands.RisingAction:
		return StorySetup
	case f < c.Bands.Midpoint:
		return StoryRisingAction
	case f < c.Bands.Climax:
		return StoryMidpoint
	case f < c.Bands.Denouement:
		return StoryClimax
	default:
		return StoryDenouement
	}
}

// PhaseFor returns the arc phase for the given turn. The result never
// precedes current and never advances more than one phase in a step, so
// the arc cannot regress and cannot skip the climax. Quest completion
// pulls the arc toward the climax early.
func (c *Controller) PhaseFor(turn int, current StoryPhase, questComplete bool) StoryPhase {
	target := c.bandFor(turn)
	if questComplete && target.ord() < StoryClimax.ord() {
		target = StoryClimax
	}
	switch {
	case target.ord() <= current.ord():
		return current
	case target.ord() > current.ord()+1:
		return current.Next()
	default:
		return target
	}
}

// UrgencyFor buckets turns remaining: more than 20 is low, 11-20 medium,
// 3-10 high, 2 or fewer critical.
func UrgencyFor(remaining int) Urgency {
	switch {
	case remaining <= 2:
		return UrgencyCritical
	case remaining <= 10:
		return UrgencyHigh
	case remaining <= 20:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ClosureEligible reports whether the adventure may end this turn: at
// least MinClosureTurn turns played, and either the quest is done or the
// budget is spent.
func (c *Controller) ClosureEligible(turn int, questComplete bool) bool {
	return turn >= c.MinClosureTurn && (questComplete || turn >= c.MaxTurns)
}

// ClosureMandatory reports the hard cap: the budget is spent and the next
// turn boundary must route to the epilogue regardless of quest state.
func (c *Controller) ClosureMandatory(turn int) bool {
	return turn >= c.MaxTurns
}

// Evaluate composes the full directive for one turn.
func (c *Controller) Evaluate(turn int, current StoryPhase, questComplete bool) Directive {
	phase := c.PhaseFor(turn, current, questComplete)
	remaining := c.MaxTurns - turn
	if remaining < 0 {
		remaining = 0
	}
	urgency := UrgencyFor(remaining)
	return Directive{
		Phase:           phase,
		TurnsRemaining:  remaining,
		Urgency:         urgency,
		Guidance:        guidance(phase, urgency, questComplete),
		ClosureEligible: c.ClosureEligible(turn, questComplete),
	}
}

func guidance(phase StoryPhase, urgency Urgency, questComplete bool) string {
	var g string
	switch phase {
	case StorySetup:
		g = "Establish the scene, the stakes, and the player's place in them. Introduce at most one new thread."
	case StoryRisingAction:
		g = "Complicate the quest. Raise the stakes and foreshadow the opposition."
	case StoryMidpoint:
		g = "Turn the situation. Reveal something that reframes what the player thought they knew."
	case StoryClimax:
		g = "Drive toward the decisive confrontation. Spend established threads; open no new ones."
	case StoryDenouement:
		g = "Resolve the remaining threads and wind the story down. No new complications."
	}
	if questComplete && phase != StoryDenouement {
		g += " The quest objective is met; steer toward consequences and closure."
	}
	switch urgency {
	case UrgencyCritical:
		g += " The story must reach its ending now."
	case UrgencyHigh:
		g += " Few turns remain; push the pace toward the ending."
	}
	return g
}
