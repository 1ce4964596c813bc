package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a turn references an unknown
// session.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionEnded is returned for turns submitted after the adventure
// closed.
var ErrSessionEnded = errors.New("session has ended")

// ErrCombatActionRequired is returned when a session in combat receives
// a plain narrative action instead of a combat action.
var ErrCombatActionRequired = errors.New("combat action required while in combat")

// ErrInvalidChoice is returned when a choice index does not match any
// pending choice.
var ErrInvalidChoice = errors.New("invalid choice index")

// InvariantError reports internal state that disagrees with the engine's
// rules: a turn counter past its budget, an arc phase moving backward,
// a combat index out of range. It marks a defect, never a user mistake,
// and the session is not saved when one is raised.
type InvariantError struct {
	SessionID uuid.UUID
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("state invariant violated for session %s: %s", e.SessionID, e.Detail)
}
