package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/dguard/internal/engine"
	"github.com/seantiz/dguard/internal/model"
	"github.com/seantiz/dguard/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB

	// waitTimeout stays below writeTimeout so a waiting request can still
	// answer with the pending task.
	waitTimeout = 25 * time.Second
)

// submitRequest is the JSON body for POST /v1/encode and /v1/decode. Args is
// passed to the engine as-is so that arity and type are checked there.
type submitRequest struct {
	Args []any `json:"args"`
}

// taskResponse describes a submitted task.
type taskResponse struct {
	ID        string          `json:"id"`
	Operation model.Operation `json:"operation"`
	Status    string          `json:"status"`
	Output    string          `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// listTasksResponse wraps the paginated list response.
type listTasksResponse struct {
	Tasks  []*model.Task `json:"tasks"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	s.handleSubmit(w, r, model.OpEncode)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	s.handleSubmit(w, r, model.OpDecode)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, op model.Operation) {
	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h, err := s.engine.Submit(op, req.Args...)
	if err != nil {
		s.writeError(w, admissionStatus(err), err.Error())
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		s.writeJSON(w, http.StatusAccepted, taskResponse{
			ID:        h.ID,
			Operation: op,
			Status:    model.StatusPending,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
	defer cancel()

	out, err := h.Await(ctx)
	resp := taskResponse{ID: h.ID, Operation: op}
	switch {
	case err == nil:
		resp.Status = model.StatusCompleted
		resp.Output = out
		s.writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, engine.ErrCancelled):
		resp.Status = model.StatusCancelled
		resp.Error = err.Error()
		s.writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		if r.Context().Err() != nil {
			return // Client disconnected.
		}
		resp.Status = model.StatusPending
		s.writeJSON(w, http.StatusAccepted, resp)
	default:
		var execErr *engine.ExecutionError
		resp.Status = model.StatusFailed
		resp.Error = err.Error()
		if errors.As(err, &execErr) {
			resp.Error = execErr.Message
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
	}
}

// admissionStatus maps a Submit error to an HTTP status code.
func admissionStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotRunning), errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrArity), errors.Is(err, engine.ErrType):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrRateLimited), errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tasks, total, err := s.store.ListTasks(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list tasks", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}

	s.writeJSON(w, http.StatusOK, listTasksResponse{
		Tasks:  tasks,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
