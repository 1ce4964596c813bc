package combat

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

// Event records one mechanical fact from an encounter: an attack, a
// stance, or a flee attempt. Actor and Target are combatant names so the
// record reads as narration context without a lookup.
type Event struct {
	Actor   string     `json:"actor"`
	Action  ActionType `json:"action"`
	Target  string     `json:"target,omitempty"`
	Roll    *dice.Roll `json:"roll,omitempty"`
	Against int        `json:"against,omitempty"`
	Damage  *dice.Roll `json:"damage,omitempty"`
	Dealt   int        `json:"dealt,omitempty"`
	Success bool       `json:"success"`
	Note    string     `json:"note,omitempty"`
}

func (ev Event) String() string {
	var b strings.Builder
	switch ev.Action {
	case ActionAttack:
		fmt.Fprintf(&b, "%s attacks %s: rolled %d against defense %d", ev.Actor, ev.Target, ev.Roll.Total, ev.Against)
		if ev.Success {
			fmt.Fprintf(&b, ", hit for %d damage", ev.Dealt)
		} else {
			b.WriteString(", miss")
		}
	case ActionDefend:
		fmt.Fprintf(&b, "%s takes a defensive stance", ev.Actor)
	case ActionFlee:
		fmt.Fprintf(&b, "%s tries to flee: %d against %d", ev.Actor, ev.Roll.Total, ev.Against)
		if ev.Success {
			b.WriteString(", escapes")
		} else {
			b.WriteString(", fails")
		}
	default:
		fmt.Fprintf(&b, "%s: %s", ev.Actor, ev.Action)
	}
	b.WriteString(".")
	if ev.Note != "" {
		b.WriteString(" ")
		b.WriteString(ev.Note)
	}
	return b.String()
}

// Summary renders events as a compact mechanical transcript for voice
// prompts, one line per event.
func Summary(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.String())
	}
	return strings.Join(lines, "\n")
}
