package engine

import (
	"sync"
)

// Loop is the issuing context: a single goroutine that runs posted functions
// one at a time in the order they were posted. Futures are only settled from
// functions running on the Loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

// NewLoop starts a Loop.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn to run on the loop. It never blocks. It returns false if
// the loop has been stopped, in which case fn is not run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It returns false if the
// loop has been stopped. Calling Do from a function already running on the
// loop deadlocks.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(ran)
	}) {
		return false
	}
	<-ran
	return true
}

// Stop refuses further posts, runs everything already posted and waits for
// the loop goroutine to exit. It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	l.mu.Unlock()
	<-l.done
}

// Done returns a channel that is closed once the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for range l.wake {
		for {
			batch, stopped := l.take()
			for _, fn := range batch {
				fn()
			}
			if len(batch) == 0 {
				if stopped {
					return
				}
				break
			}
		}
	}
}

// take removes and returns every queued function.
func (l *Loop) take() ([]func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch, l.stopped
}
