package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/dguard/internal/engine"
	"github.com/seantiz/dguard/internal/model"
	"github.com/seantiz/dguard/internal/store"
)

func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task for events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	flush := func() {
		if canFlush {
			flusher.Flush()
		}
	}

	// The current state comes first; a finished task gets only this event.
	current := engine.Event{TaskID: task.ID, Type: task.Status, Output: task.Output, Error: task.Error, At: task.CreatedAt}
	if task.Status == model.StatusPending {
		current.Type = engine.EventQueued
	}
	if err := writeSSEEvent(w, current); err != nil {
		return
	}
	if model.IsTerminal(task.Status) {
		_ = writeSSEDone(w)
		flush()
		return
	}
	flush()

	// Subscribing to a task that finished since the read above returns a
	// closed channel; the terminal event is then taken from the store.
	ch, unsub := s.engine.Subscribe(id)
	defer unsub()

	last := current.Type
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				s.writeFinalEvent(w, r, id, last)
				_ = writeSSEDone(w)
				flush()
				return
			}
			if ev.Type == last {
				continue
			}
			if err := writeSSEEvent(w, ev); err != nil {
				return // Write failed (e.g. client gone).
			}
			last = ev.Type
			flush()
		case <-r.Context().Done():
			return // Client disconnected.
		}
	}
}

// writeFinalEvent writes the stored terminal event of a task if the stream
// has not already carried it.
func (s *Server) writeFinalEvent(w http.ResponseWriter, r *http.Request, id, last string) {
	if model.IsTerminal(last) {
		return
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.logger.Error("get task for final event", "task_id", id, "error", err)
		return
	}
	if !model.IsTerminal(task.Status) {
		return
	}
	finished := task.CreatedAt
	if task.FinishedAt != nil {
		finished = *task.FinishedAt
	}
	_ = writeSSEEvent(w, engine.Event{
		TaskID: task.ID, Type: task.Status, Output: task.Output, Error: task.Error, At: finished,
	})
}

// writeSSEEvent writes ev as a named SSE event with a JSON payload.
func writeSSEEvent(w http.ResponseWriter, ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

// writeSSEDone writes the final event of every stream.
func writeSSEDone(w http.ResponseWriter) error {
	_, err := fmt.Fprint(w, "event: done\ndata: stream complete\n\n")
	return err
}
