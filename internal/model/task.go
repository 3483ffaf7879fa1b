package model

import (
	"fmt"
	"time"
)

// Operation names a transform a caller can request. The set is closed:
// adding an operation means adding a constant here and a case wherever
// operations are dispatched.
type Operation string

// Operations.
const (
	OpEncode Operation = "encode"
	OpDecode Operation = "decode"
)

// ParseOperation converts s to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OpEncode, OpDecode:
		return Operation(s), nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

func (o Operation) String() string { return string(o) }

// Task status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning:   true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminal reports whether status is a final state.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// Task is the history record of one admitted request.
type Task struct {
	ID         string     `json:"id"`
	Operation  Operation  `json:"operation"`
	Status     string     `json:"status"`
	Input      string     `json:"input"`
	Output     string     `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMS *int       `json:"duration_ms,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
