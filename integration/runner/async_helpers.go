package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const (
	// PollInterval is how often to check the session for updates
	PollInterval = 1 * time.Second
	// TurnTimeout is max time to wait for a queued turn to be processed
	TurnTimeout = 60 * time.Second
)

// AsyncTurnResponse is the 202 acknowledgement from the async turn endpoint
type AsyncTurnResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// CreateSession creates a fresh session via POST /v1/sessions
func CreateSession(ctx context.Context, client *http.Client, baseURL string, maxTurns int, rating string) (*session.Session, error) {
	createReq := map[string]interface{}{}
	if maxTurns > 0 {
		createReq["max_turns"] = maxTurns
	}
	if rating != "" {
		createReq["rating"] = rating
	}

	reqBody, err := json.Marshal(createReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send session request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session endpoint returned %d (expected 201): %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode created session: %w", err)
	}

	return &sess, nil
}

// PostTurnAsync posts a turn request to the async endpoint and returns the request_id
func PostTurnAsync(ctx context.Context, client *http.Client, baseURL string, turnReq turn.Request) (string, error) {
	reqBody, err := json.Marshal(turnReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal turn request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/turns/async", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create turn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send turn request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("turn endpoint returned %d (expected 202): %s", resp.StatusCode, string(body))
	}

	var turnResp AsyncTurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&turnResp); err != nil {
		return "", fmt.Errorf("failed to parse turn response: %w", err)
	}

	return turnResp.RequestID, nil
}

// GetSession retrieves the current session state
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*session.Session, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID.String())
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send session request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &sess, nil
}

// PollForTurnResult polls the session until turn_count increases past
// initialTurnCount, meaning the worker finished the queued turn.
// Returns the updated session and the last voice line of the transcript.
func PollForTurnResult(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, initialTurnCount int) (*session.Session, string, error) {
	timeout := time.After(TurnTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-timeout:
			return nil, "", fmt.Errorf("timeout waiting for turn result (waited %v)", TurnTimeout)
		case <-ticker.C:
			sess, err := GetSession(ctx, client, baseURL, sessionID)
			if err != nil {
				// Log error but continue polling
				continue
			}

			if sess.TurnCount > initialTurnCount {
				return sess, lastVoiceLine(sess), nil
			}
		}
	}
}

// lastVoiceLine returns the most recent assistant message in the
// transcript, or empty when none exists.
func lastVoiceLine(sess *session.Session) string {
	for i := len(sess.History) - 1; i >= 0; i-- {
		if sess.History[i].Role == turn.RoleAgent {
			return sess.History[i].Content
		}
	}
	return ""
}
