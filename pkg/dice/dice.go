// Package dice implements dice notation parsing and rolling. All rolls
// draw from an injectable Source so combat and routing behavior can be
// reproduced exactly in tests.
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxDiceCount guards against pathological notation like "999999d6".
const maxDiceCount = 1000

// Source supplies randomness for rolls. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a deterministic Source seeded with the given value.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a Source seeded from the current time.
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ParseError reports dice notation that could not be parsed.
type ParseError struct {
	Notation string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid dice notation %q: %s", e.Notation, e.Reason)
}

// Roll is the outcome of rolling a notation. Values are set once at roll
// time and never modified.
type Roll struct {
	Notation string `json:"notation"`
	Rolls    []int  `json:"rolls"`
	Modifier int    `json:"modifier,omitempty"`
	Total    int    `json:"total"`
}

var notationRe = regexp.MustCompile(`^(\d*)[dD](\d+)([+-]\d+)?$`)

// Parse splits notation of the form NdM, NdM+K or NdM-K into its parts.
// N defaults to 1 when omitted, so "d20" rolls a single d20.
func Parse(notation string) (count, sides, modifier int, err error) {
	m := notationRe.FindStringSubmatch(strings.TrimSpace(notation))
	if m == nil {
		return 0, 0, 0, &ParseError{Notation: notation, Reason: "expected NdM with optional +K or -K"}
	}
	count = 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
		if count < 1 {
			return 0, 0, 0, &ParseError{Notation: notation, Reason: "dice count must be at least 1"}
		}
	}
	if count > maxDiceCount {
		return 0, 0, 0, &ParseError{Notation: notation, Reason: fmt.Sprintf("dice count exceeds %d", maxDiceCount)}
	}
	sides, _ = strconv.Atoi(m[2])
	if sides < 2 {
		return 0, 0, 0, &ParseError{Notation: notation, Reason: "die must have at least 2 sides"}
	}
	if m[3] != "" {
		modifier, _ = strconv.Atoi(m[3])
	}
	return count, sides, modifier, nil
}

// Roller rolls dice notation against a Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller drawing from src.
func NewRoller(src Source) *Roller {
	return &Roller{src: src}
}

// Src exposes the underlying Source for callers that need raw randomness.
func (r *Roller) Src() Source {
	return r.src
}

// Roll parses and rolls the given notation.
func (r *Roller) Roll(notation string) (Roll, error) {
	count, sides, modifier, err := Parse(notation)
	if err != nil {
		return Roll{}, err
	}
	rolls := make([]int, count)
	total := modifier
	for i := range rolls {
		rolls[i] = r.src.Intn(sides) + 1
		total += rolls[i]
	}
	return Roll{
		Notation: strings.TrimSpace(notation),
		Rolls:    rolls,
		Modifier: modifier,
		Total:    total,
	}, nil
}

// RollDie rolls a single die with the given number of sides. Callers pass
// fixed die sizes; anything below 2 sides rolls as 1.
func (r *Roller) RollDie(sides int) int {
	if sides < 2 {
		return 1
	}
	return r.src.Intn(sides) + 1
}

// Chance returns true with probability p.
func (r *Roller) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.src.Float64() < p
}
