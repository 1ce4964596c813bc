package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special action values that trigger non-turn behavior
const (
	// NewSessionAction discards the current session and starts a fresh one.
	NewSessionAction = "NEW_SESSION"
)

// TestSuite defines a complete integration test scenario.
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name"`
	MaxTurns int        `json:"max_turns,omitempty"` // Turn budget for the session (server default when 0)
	Rating   string     `json:"rating,omitempty"`    // Content rating for the session
	Steps    []TestStep `json:"steps,omitempty"`     // Used for regular tests
	Cases    []string   `json:"cases,omitempty"`     // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes.
// Exactly one of Action, ChoiceIndex or CombatAction should be set.
// Use action: "NEW_SESSION" to start over with a fresh session.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action,omitempty"`
	ChoiceIndex  *int         `json:"choice_index,omitempty"`
	CombatAction string       `json:"combat_action,omitempty"` // attack, defend or flee
	CombatTarget string       `json:"combat_target,omitempty"` // optional attack target
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Session properties - aligned with pkg/session
	Phase         *string `json:"phase,omitempty"`          // Session flow phase
	StoryPhase    *string `json:"story_phase,omitempty"`    // Pacing phase
	TurnCount     *int    `json:"turn_count,omitempty"`     // Total turns processed
	AdventureTurn *int    `json:"adventure_turn,omitempty"` // Position in the turn budget
	QuestID       *string `json:"quest_id,omitempty"`       // Accepted quest
	QuestComplete *bool   `json:"quest_complete,omitempty"`
	HasPC         *bool   `json:"has_pc,omitempty"`      // Character creation produced a PC
	HasChoices    *bool   `json:"has_choices,omitempty"` // Pending quest choices offered
	InCombat      *bool   `json:"in_combat,omitempty"`   // Live encounter present

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	RequestID    string
	IsReset      bool // True if this was a NEW_SESSION step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
