package voice

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// mechanicalKeywords trigger the adjudicator during exploration. Matching
// is a case-insensitive substring check against the raw action text.
var mechanicalKeywords = []string{"attack", "fight", "roll", "cast", "strike"}

// Decision is a routing result: the voices that speak this turn, in
// speaking order. The last voice is the turn's primary voice.
type Decision struct {
	VoiceIDs []string `json:"voice_ids"`
	Reason   string   `json:"reason"`
}

// Primary returns the last voice in the decision, which closes the turn
// and is the one recorded in the session's recent-voice window.
func (d Decision) Primary() string {
	if len(d.VoiceIDs) == 0 {
		return ""
	}
	return d.VoiceIDs[len(d.VoiceIDs)-1]
}

// Includes reports whether the decision contains the given voice.
func (d Decision) Includes(id string) bool {
	for _, v := range d.VoiceIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Router selects the voices for a turn. The comic-relief draw uses the
// injected roller, so tests can pin the outcome.
type Router struct {
	roller *dice.Roller

	// ComicChance is the per-turn probability of the jester joining an
	// exploration turn once the cooldown has elapsed.
	ComicChance float64

	// ComicCooldown is the minimum number of turns between jester
	// appearances.
	ComicCooldown int
}

// NewRouter returns a router with the standard comic-relief tuning.
func NewRouter(roller *dice.Roller) *Router {
	if roller == nil {
		roller = dice.NewRoller(dice.NewTimeSource())
	}
	return &Router{
		roller:        roller,
		ComicChance:   0.15,
		ComicCooldown: 3,
	}
}

// Route returns the ordered voice list for one turn. Rules, in order:
// creation and selection phases are single-voice interviews; combat and
// mechanical keywords bring in the adjudicator ahead of the narrator;
// otherwise the narrator speaks alone, sometimes preceded by the jester.
// Wherever the narrator appears, it appears last, so every earlier
// voice's output can feed its context.
func (r *Router) Route(phase session.Phase, action string, sinceComic int) Decision {
	switch phase {
	case session.PhaseCharacterCreation:
		return Decision{VoiceIDs: []string{Interviewer}, Reason: "character creation interview"}
	case session.PhaseQuestSelection:
		return Decision{VoiceIDs: []string{Questgiver}, Reason: "quest selection"}
	case session.PhaseCombat:
		return Decision{VoiceIDs: []string{Adjudicator, Narrator}, Reason: "combat narration"}
	case session.PhaseEpilogue:
		return Decision{VoiceIDs: []string{Chronicler}, Reason: "closing the adventure"}
	case session.PhaseEnded:
		return Decision{Reason: "session has ended"}
	}

	if kw := matchKeyword(action); kw != "" {
		return Decision{
			VoiceIDs: []string{Adjudicator, Narrator},
			Reason:   "mechanical keyword " + strconv.Quote(kw),
		}
	}

	if sinceComic >= r.ComicCooldown && r.roller.Chance(r.ComicChance) {
		return Decision{
			VoiceIDs: []string{Jester, Narrator},
			Reason:   "comic relief joins the narration",
		}
	}
	return Decision{VoiceIDs: []string{Narrator}, Reason: "standard narration"}
}

// matchKeyword returns the first mechanical keyword found in the action
// text, or "".
func matchKeyword(action string) string {
	lower := strings.ToLower(action)
	for _, kw := range mechanicalKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}
