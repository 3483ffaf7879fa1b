package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// errDispatcherClosed is returned by Enqueue after Shutdown has begun.
var errDispatcherClosed = errors.New("dispatcher closed")

// runFunc executes one work item on a worker goroutine.
type runFunc func(ctx context.Context, item *workItem)

// completeFunc receives each item leaving the dispatcher, whether it ran or
// was cancelled while queued.
type completeFunc func(item *workItem, status execStatus)

// Dispatcher is the worker execution context: a FIFO queue drained by a fixed
// number of worker goroutines. The queue is unbounded unless maxQueue > 0.
type Dispatcher struct {
	workers  int
	maxQueue int
	run      runFunc
	complete completeFunc
	logger   *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*workItem
	active int
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newDispatcher creates a Dispatcher and starts its workers.
func newDispatcher(workers, maxQueue int, run runFunc, complete completeFunc, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		workers:  workers,
		maxQueue: maxQueue,
		run:      run,
		complete: complete,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	d.cond = sync.NewCond(&d.mu)

	for range d.workers {
		d.wg.Go(d.worker)
	}
	return d
}

// Enqueue appends item to the queue. Ownership of item passes to the
// dispatcher when Enqueue returns nil. If accepted is not nil it is called
// after the item is queued and before any worker can take it.
func (d *Dispatcher) Enqueue(item *workItem, accepted func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errDispatcherClosed
	}
	if d.maxQueue > 0 && len(d.queue) >= d.maxQueue {
		return ErrQueueFull
	}
	d.queue = append(d.queue, item)
	queueDepth.Set(float64(len(d.queue)))
	if accepted != nil {
		accepted()
	}
	d.cond.Signal()
	return nil
}

// full reports whether a bounded queue has no room left.
func (d *Dispatcher) full() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxQueue > 0 && len(d.queue) >= d.maxQueue
}

// Len returns the number of items waiting to run.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Active returns the number of items currently running.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Shutdown stops accepting work and reports every queued item as cancelled.
// It then waits for running items to finish. If ctx ends first, the workers'
// context is cancelled and Shutdown waits for them to return.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Wait()
		return nil
	}
	d.closed = true
	pending := d.queue
	d.queue = nil
	queueDepth.Set(0)
	d.cond.Broadcast()
	d.mu.Unlock()

	if len(pending) > 0 {
		d.logger.Info("cancelling queued work items", "count", len(pending))
	}
	for _, item := range pending {
		d.complete(item, execCancelled)
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher shutdown timed out, cancelling running work items")
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	for {
		item, ok := d.next()
		if !ok {
			return
		}

		d.runItem(item)

		status := execDone
		if d.ctx.Err() != nil && item.err != "" {
			status = execCancelled
		}

		d.mu.Lock()
		d.active--
		d.mu.Unlock()

		d.complete(item, status)
	}
}

// runItem runs item and turns a panicking handler into a failed item.
func (d *Dispatcher) runItem(item *workItem) {
	defer func() {
		if r := recover(); r != nil {
			item.result = ""
			item.err = fmt.Sprintf("handler panicked: %v", r)
			d.logger.Error("work item panicked",
				"task_id", item.id,
				"operation", string(item.op),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	d.run(d.ctx, item)
}

// next blocks until an item is available or the dispatcher is closed.
func (d *Dispatcher) next() (*workItem, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.queue) == 0 {
		return nil, false
	}

	item := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	d.active++
	queueDepth.Set(float64(len(d.queue)))
	return item, true
}
