package engine

import (
	"context"
	"time"

	"github.com/seantiz/dguard/internal/model"
)

// The functions in this file run only on the Loop.

// deliver is the completion bridge. It settles the item's future exactly
// once, records the outcome and releases the item.
func (e *Engine) deliver(item *workItem, status execStatus) {
	if status == execCancelled {
		item.result = ""
		item.err = CancelledMessage
	}

	var (
		outcome string
		err     error
	)
	switch {
	case status == execCancelled:
		outcome = model.StatusCancelled
		err = item.resolver.Reject(ErrCancelled)
	case item.err == "":
		outcome = model.StatusCompleted
		err = item.resolver.Resolve(item.result)
	default:
		outcome = model.StatusFailed
		err = item.resolver.Reject(&ExecutionError{
			TaskID:    item.id,
			Operation: item.op,
			Message:   item.err,
		})
	}
	if err != nil {
		e.logger.Error("settle future", "task_id", item.id, "error", err)
	}

	now := time.Now().UTC()
	var durationMS *int
	if item.startedAt != nil {
		d := int(now.Sub(*item.startedAt).Milliseconds())
		durationMS = &d
		taskDuration.WithLabelValues(string(item.op), outcome).Observe(now.Sub(*item.startedAt).Seconds())
	}
	tasksFinished.WithLabelValues(string(item.op), outcome).Inc()

	e.persistFinish(&model.Task{
		ID:         item.id,
		Status:     outcome,
		Output:     item.result,
		Error:      item.err,
		DurationMS: durationMS,
		StartedAt:  item.startedAt,
		FinishedAt: &now,
	})

	e.broker.Publish(Event{TaskID: item.id, Type: outcome, Output: item.result, Error: item.err, At: now})
	e.broker.Close(item.id)
	delete(e.live, item.id)

	level := e.logger.Info
	if outcome != model.StatusCompleted {
		level = e.logger.Warn
	}
	level("task finished",
		"task_id", item.id,
		"operation", string(item.op),
		"status", outcome,
		"error", item.err,
	)

	item.resolver = nil
}

func (e *Engine) recordQueued(t *model.Task) {
	if e.store != nil {
		if err := e.store.CreateTask(context.Background(), t); err != nil {
			e.logger.Error("failed to record task", "task_id", t.ID, "error", err)
		}
	}
	e.live[t.ID] = struct{}{}
	e.broker.Publish(Event{TaskID: t.ID, Type: EventQueued, At: t.CreatedAt})
}

func (e *Engine) recordRunning(id string, startedAt time.Time) {
	if e.store != nil {
		if err := e.store.MarkRunning(context.Background(), id, startedAt); err != nil {
			e.logger.Error("failed to transition to running", "task_id", id, "error", err)
		}
	}
	e.broker.Publish(Event{TaskID: id, Type: EventRunning, At: startedAt})
}

func (e *Engine) persistFinish(t *model.Task) {
	if e.store == nil {
		return
	}
	if err := e.store.FinishTask(context.Background(), t); err != nil {
		e.logger.Error("failed to record task outcome", "task_id", t.ID, "status", t.Status, "error", err)
	}
}
