package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running adventure-engine
// API with its worker attached.
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	RatingOverride    string // If set, overrides the rating for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	rating := suite.Rating
	if r.RatingOverride != "" {
		rating = r.RatingOverride
	}

	sess, err := CreateSession(ctx, r.Client, r.BaseURL, suite.MaxTurns, rating)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	sessionID := sess.ID
	result.Session = sessionID

	// Execute each test step
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		// A NEW_SESSION step swaps in a fresh session mid-suite
		if step.Action == NewSessionAction {
			fresh, err := CreateSession(ctx, r.Client, r.BaseURL, suite.MaxTurns, rating)
			stepResult := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[NEW SESSION]"}
			if err != nil {
				stepResult.Error = fmt.Errorf("failed to create fresh session: %w", err)
				result.Results = append(result.Results, stepResult)
				result.Error = stepResult.Error
				break
			}
			sessionID = fresh.ID
			result.Session = sessionID
			stepResult.Success = true
			result.Results = append(result.Results, stepResult)
			continue
		}

		stepResult := r.runStep(ctx, sessionID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single test step and checks expectations.
// Will retry once on timeout errors without backoff
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	for attempt := 1; attempt <= 2; attempt++ {
		result := r.executeStep(ctx, sessionID, step)

		if result.Success || result.Error == nil {
			return result
		}

		isTimeout := strings.Contains(result.Error.Error(), "timeout waiting for turn result")

		// If it's a timeout and this is the first attempt, retry
		if isTimeout && attempt == 1 {
			r.Logger("    Timeout detected, retrying step: %s", step.Name)
			continue
		}

		return result
	}

	return TestResult{StepName: step.Name, Error: fmt.Errorf("unexpected error in retry logic")}
}

// buildTurnRequest maps a test step to the wire request
func buildTurnRequest(sessionID uuid.UUID, step TestStep) (turn.Request, error) {
	req := turn.Request{SessionID: sessionID}

	switch {
	case step.ChoiceIndex != nil:
		req.Choice = step.ChoiceIndex
	case step.CombatAction != "":
		req.Combat = &combat.Action{
			Type:     combat.ActionType(step.CombatAction),
			TargetID: step.CombatTarget,
		}
		req.Action = step.Action
	case step.Action != "":
		req.Action = step.Action
	default:
		return req, fmt.Errorf("step %q has no action, choice_index or combat_action", step.Name)
	}

	return req, nil
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	// Get session before the turn so the poll knows where the counter started
	preSession, err := GetSession(ctx, r.Client, r.BaseURL, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get session before turn: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	turnReq, err := buildTurnRequest(sessionID, step)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	requestID, err := PostTurnAsync(ctx, r.Client, r.BaseURL, turnReq)
	if err != nil {
		result.Error = fmt.Errorf("failed to post async turn: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.RequestID = requestID

	// Poll until the worker bumps the turn counter
	postSession, voiceLine, err := PollForTurnResult(ctx, r.Client, r.BaseURL, sessionID, preSession.TurnCount)
	if err != nil {
		result.Error = fmt.Errorf("failed to poll for turn result: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = voiceLine

	if err := checkExpectations(step.Expectations, postSession, voiceLine); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates the test expectations against the session
// after the turn
func checkExpectations(exp Expectations, sess *session.Session, responseText string) error {
	if exp.Phase != nil {
		if string(sess.Phase) != *exp.Phase {
			return fmt.Errorf("expected phase %s, got %s", *exp.Phase, sess.Phase)
		}
	}

	if exp.StoryPhase != nil {
		if string(sess.StoryPhase) != *exp.StoryPhase {
			return fmt.Errorf("expected story_phase %s, got %s", *exp.StoryPhase, sess.StoryPhase)
		}
	}

	if exp.TurnCount != nil {
		if sess.TurnCount != *exp.TurnCount {
			return fmt.Errorf("expected turn_count to be %d, got %d", *exp.TurnCount, sess.TurnCount)
		}
	}

	if exp.AdventureTurn != nil {
		if sess.AdventureTurn != *exp.AdventureTurn {
			return fmt.Errorf("expected adventure_turn to be %d, got %d", *exp.AdventureTurn, sess.AdventureTurn)
		}
	}

	if exp.QuestID != nil {
		if sess.Quest == nil {
			return fmt.Errorf("expected quest %s, but no quest is accepted", *exp.QuestID)
		}
		if sess.Quest.ID != *exp.QuestID {
			return fmt.Errorf("expected quest %s, got %s", *exp.QuestID, sess.Quest.ID)
		}
	}

	if exp.QuestComplete != nil {
		if sess.QuestComplete != *exp.QuestComplete {
			return fmt.Errorf("expected quest_complete to be %t, got %t", *exp.QuestComplete, sess.QuestComplete)
		}
	}

	if exp.HasPC != nil {
		hasPC := sess.PC != nil
		if hasPC != *exp.HasPC {
			return fmt.Errorf("expected has_pc to be %t, got %t", *exp.HasPC, hasPC)
		}
	}

	if exp.HasChoices != nil {
		hasChoices := len(sess.PendingChoices) > 0
		if hasChoices != *exp.HasChoices {
			return fmt.Errorf("expected has_choices to be %t, got %t (choices: %d)", *exp.HasChoices, hasChoices, len(sess.PendingChoices))
		}
	}

	if exp.InCombat != nil {
		inCombat := sess.Encounter != nil
		if inCombat != *exp.InCombat {
			return fmt.Errorf("expected in_combat to be %t, got %t", *exp.InCombat, inCombat)
		}
	}

	// Response content checks
	if len(exp.ResponseContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, expectedText := range exp.ResponseContains {
			if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
				return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
			}
		}
	}

	if len(exp.ResponseNotContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, unexpectedText := range exp.ResponseNotContains {
			if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
				return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
			}
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	if exp.ResponseMinLength != nil {
		if len(responseText) < *exp.ResponseMinLength {
			return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
		}
	}
	if exp.ResponseMaxLength != nil {
		if len(responseText) > *exp.ResponseMaxLength {
			return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
		}
	}

	return nil
}
