package engine

import (
	"strings"
	"time"

	"github.com/seantiz/dguard/internal/future"
	"github.com/seantiz/dguard/internal/model"
)

// execStatus is how a work item left the worker pool.
type execStatus int

const (
	execDone execStatus = iota
	execCancelled
)

func (s execStatus) String() string {
	if s == execCancelled {
		return "cancelled"
	}
	return "done"
}

// workItem is one request in flight. It is owned by exactly one goroutine at
// a time: the submitter, then the dispatcher queue and one worker, then the
// completion bridge on the loop. Nothing reads it after delivery.
type workItem struct {
	id        string
	op        model.Operation
	input     string
	result    string
	err       string
	resolver  *future.Resolver[string]
	createdAt time.Time
	startedAt *time.Time
}

func newWorkItem(op model.Operation, input string, resolver *future.Resolver[string]) *workItem {
	return &workItem{
		id:        model.NewID(),
		op:        op,
		input:     strings.Clone(input),
		resolver:  resolver,
		createdAt: time.Now().UTC(),
	}
}
