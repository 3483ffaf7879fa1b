package engine

import (
	"errors"
	"fmt"

	"github.com/seantiz/dguard/internal/model"
)

// Admission errors. They are returned synchronously by Submit and no future
// is created when one occurs.
var (
	ErrNotRunning  = errors.New("background task is not running")
	ErrArity       = errors.New("wrong number of arguments")
	ErrType        = errors.New("wrong arguments")
	ErrRateLimited = errors.New("submission rate limit exceeded")
	ErrQueueFull   = errors.New("work queue is full")
	ErrClosed      = errors.New("engine is closed")
)

// CancelledMessage is the error text recorded for items that never ran
// because the worker pool was torn down.
const CancelledMessage = "operation was cancelled"

// ErrCancelled rejects the future of an item cancelled by worker teardown.
var ErrCancelled = errors.New(CancelledMessage)

// ExecutionError rejects the future of an item whose handler failed.
type ExecutionError struct {
	TaskID    string
	Operation model.Operation
	Message   string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s task %s: %s", e.Operation, e.TaskID, e.Message)
}
