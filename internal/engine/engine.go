package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/seantiz/dguard/internal/future"
	"github.com/seantiz/dguard/internal/model"
	"github.com/seantiz/dguard/internal/service"
	"github.com/seantiz/dguard/internal/store"
	"github.com/seantiz/dguard/internal/transform"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 4

// Handle is returned for every admitted request.
type Handle struct {
	ID        string
	Operation model.Operation
	*future.Future[string]
}

// Engine is the public request API. It admits requests, hands them to the
// Dispatcher and settles their futures on its Loop.
type Engine struct {
	state    *service.State
	handlers transform.Handlers
	store    store.Store
	logger   *slog.Logger
	broker   *EventBroker
	loop     *Loop
	disp     *Dispatcher
	limiter  *rate.Limiter

	workers  int
	maxQueue int

	// live holds the ids of admitted tasks that have not been delivered.
	// Only the loop touches it.
	live map[string]struct{}

	mu     sync.RWMutex
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMaxQueue bounds the number of queued items. Zero leaves the queue
// unbounded.
func WithMaxQueue(n int) Option {
	return func(e *Engine) { e.maxQueue = n }
}

// WithRateLimit limits admissions to perSecond with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates an Engine and starts its loop and workers. The caller owns
// state and may toggle it independently of the engine.
func New(state *service.State, handlers transform.Handlers, s store.Store, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if state == nil {
		return nil, errors.New("service state is required")
	}
	if err := handlers.Validate(); err != nil {
		return nil, fmt.Errorf("handlers: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		state:    state,
		handlers: handlers,
		store:    s,
		logger:   logger,
		broker:   NewEventBroker(),
		workers:  DefaultWorkers,
		live:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.loop = NewLoop()
	e.disp = newDispatcher(e.workers, e.maxQueue, e.execute, e.complete, logger)

	e.logger.Info("engine started",
		"workers", e.disp.workers,
		"max_queue", e.maxQueue,
		"running", state.IsRunning(),
	)
	return e, nil
}

// Subscribe returns the lifecycle events of a task that has not finished yet.
// For a finished or unknown task the returned channel is already closed.
func (e *Engine) Subscribe(taskID string) (<-chan Event, func()) {
	var (
		ch    <-chan Event
		unsub func()
	)
	ok := e.loop.Do(func() {
		if _, live := e.live[taskID]; live {
			ch, unsub = e.broker.Subscribe(taskID)
		}
	})
	if !ok || ch == nil {
		return closedEvents(), func() {}
	}
	return ch, unsub
}

// Start re-opens admission.
func (e *Engine) Start() string {
	msg := e.state.Start()
	e.logger.Info("service started")
	return msg
}

// Stop closes admission. Items already submitted still run and settle.
func (e *Engine) Stop() string {
	msg := e.state.Stop()
	e.logger.Info("service stopped")
	return msg
}

// IsRunning reports whether new requests are admitted.
func (e *Engine) IsRunning() bool {
	return e.state.IsRunning()
}

// QueueLen returns the number of items waiting for a worker.
func (e *Engine) QueueLen() int {
	return e.disp.Len()
}

// Active returns the number of items currently running on a worker.
func (e *Engine) Active() int {
	return e.disp.Active()
}

// Encode submits an encode request. See Submit.
func (e *Engine) Encode(args ...any) (*Handle, error) {
	return e.Submit(model.OpEncode, args...)
}

// Decode submits a decode request. See Submit.
func (e *Engine) Decode(args ...any) (*Handle, error) {
	return e.Submit(model.OpDecode, args...)
}

// Submit validates args, queues one work item for op and returns its pending
// future. Checks run in order: service running, exactly one argument, the
// argument is a string. Any failure is returned before a future exists.
func (e *Engine) Submit(op model.Operation, args ...any) (*Handle, error) {
	if !e.state.IsRunning() {
		return nil, e.reject(op, ErrNotRunning)
	}
	if len(args) != 1 {
		return nil, e.reject(op, ErrArity)
	}
	input, ok := args[0].(string)
	if !ok {
		return nil, e.reject(op, ErrType)
	}
	if _, err := model.ParseOperation(string(op)); err != nil {
		return nil, err
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return nil, e.reject(op, ErrRateLimited)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, e.reject(op, ErrClosed)
	}

	if e.disp.full() {
		return nil, e.reject(op, ErrQueueFull)
	}

	f, resolver := future.New[string]()
	item := newWorkItem(op, input, resolver)

	record := &model.Task{
		ID:        item.id,
		Operation: op,
		Status:    model.StatusPending,
		Input:     item.input,
		CreatedAt: item.createdAt,
	}
	// The record is posted while the dispatcher holds the item, so it
	// reaches the loop before any worker reports progress on it.
	err := e.disp.Enqueue(item, func() {
		e.loop.Post(func() { e.recordQueued(record) })
	})
	if err != nil {
		if errors.Is(err, errDispatcherClosed) {
			err = ErrClosed
		}
		return nil, e.reject(op, err)
	}

	tasksSubmitted.WithLabelValues(string(op)).Inc()
	e.logger.Debug("task submitted", "task_id", item.id, "operation", string(op))

	return &Handle{ID: item.id, Operation: op, Future: f}, nil
}

func (e *Engine) reject(op model.Operation, err error) error {
	tasksRejected.WithLabelValues(string(op), rejectReason(err)).Inc()
	return err
}

// Close stops admission, cancels queued items, waits for running items and
// for every completion to be delivered. It is safe to call more than once.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.loop.Done()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.disp.Shutdown(ctx)
	e.loop.Stop()
	e.logger.Info("engine closed")
	return err
}

// execute runs on a worker goroutine.
func (e *Engine) execute(ctx context.Context, item *workItem) {
	start := time.Now().UTC()
	item.startedAt = &start
	id := item.id
	e.loop.Post(func() { e.recordRunning(id, start) })

	handler, err := e.handlers.For(item.op)
	if err != nil {
		item.err = err.Error()
		return
	}

	out, err := handler.Transform(ctx, item.input)
	if err != nil {
		item.err = err.Error()
		return
	}
	item.result = out
}

// complete is called on the worker goroutine (or by Shutdown for queued
// items) and hands item over to the loop.
func (e *Engine) complete(item *workItem, status execStatus) {
	if !e.loop.Post(func() { e.deliver(item, status) }) {
		e.logger.Error("completion dropped, loop stopped", "task_id", item.id)
	}
}
