package engine

import (
	"sync"
	"time"

	"github.com/seantiz/dguard/internal/model"
)

// subscriberBufferSize is the channel buffer for each event subscriber.
// A task emits at most three events, so a subscriber never falls behind.
const subscriberBufferSize = 8

// Task lifecycle event types. Terminal events reuse the task status names.
const (
	EventQueued    = "queued"
	EventRunning   = model.StatusRunning
	EventCompleted = model.StatusCompleted
	EventFailed    = model.StatusFailed
	EventCancelled = model.StatusCancelled
)

// Event is one lifecycle transition of a task.
type Event struct {
	TaskID string    `json:"task_id"`
	Type   string    `json:"type"`
	Output string    `json:"output,omitempty"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// EventBroker fans task events out to subscribers. It is safe for concurrent
// use.
//
// A topic exists only while it has subscribers and its task has not finished.
// Whether a task is still live is tracked by the Engine, so subscriptions
// should go through Engine.Subscribe.
type EventBroker struct {
	mu     sync.Mutex
	topics map[string]*eventTopic
}

type eventTopic struct {
	subs   map[int]chan Event
	nextID int
}

// NewEventBroker creates an empty broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{
		topics: make(map[string]*eventTopic),
	}
}

// Subscribe returns a channel of events for taskID and an unsubscribe
// function. The channel is closed by Close(taskID).
func (b *EventBroker) Subscribe(taskID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[taskID]
	if !ok {
		t = &eventTopic{subs: make(map[int]chan Event)}
		b.topics[taskID] = t
	}

	ch := make(chan Event, subscriberBufferSize)
	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
		if len(t.subs) == 0 && b.topics[taskID] == t {
			delete(b.topics, taskID)
		}
	}
}

// Publish delivers ev to the subscribers of ev.TaskID. Events are dropped for
// subscribers whose buffers are full.
func (b *EventBroker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[ev.TaskID]
	if !ok {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes every subscriber channel of taskID and forgets the topic.
func (b *EventBroker) Close(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[taskID]
	if !ok {
		return
	}
	delete(b.topics, taskID)

	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// closedEvents returns a channel that is already closed.
func closedEvents() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}
