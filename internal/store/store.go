package store

import (
	"context"
	"errors"
	"time"

	"github.com/seantiz/dguard/internal/model"
)

// ErrInvalidTransition is returned when a task status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// TaskStats holds aggregate execution statistics.
type TaskStats struct {
	Total            int            `json:"total"`
	CountByStatus    map[string]int `json:"count_by_status"`
	CountByOperation map[string]int `json:"count_by_operation"`
	AvgDurationMS    float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for task history.
type Store interface {
	CreateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, limit, offset int) ([]*model.Task, int, error)
	// MarkRunning moves a pending task to running and records startedAt.
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	// FinishTask writes the terminal status, output, error and timing of t.
	FinishTask(ctx context.Context, t *model.Task) error
	GetTaskStats(ctx context.Context) (*TaskStats, error)
	Close() error
}
