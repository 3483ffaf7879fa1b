package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/dguard/internal/service"
	"github.com/seantiz/dguard/internal/transform"
)

func brokerTopics(e *Engine) int {
	e.broker.mu.Lock()
	defer e.broker.mu.Unlock()
	return len(e.broker.topics)
}

func TestFinishedTasksReleaseTopics(t *testing.T) {
	e, err := New(service.New(), transform.NewCodec(0).Handlers(), nil, discardLogger())
	require.NoError(t, err)
	defer e.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for range 1000 {
		h, err := e.Encode("x")
		require.NoError(t, err)
		_, err = h.Await(ctx)
		require.NoError(t, err)
	}

	// One task with a subscriber that watches it to the end.
	h, err := e.Encode("watched")
	require.NoError(t, err)
	events, unsub := e.Subscribe(h.ID)
	defer unsub()
	for range events {
	}

	// Delivery closes the topic in the same loop step that settles the
	// future, so one more loop round trip observes the final state.
	var live int
	require.True(t, e.loop.Do(func() { live = len(e.live) }))
	assert.Zero(t, live)
	assert.Zero(t, brokerTopics(e))
}

func TestUnsubscribeReleasesTopic(t *testing.T) {
	b := NewEventBroker()
	_, unsub1 := b.Subscribe("t1")
	_, unsub2 := b.Subscribe("t1")

	unsub1()
	assert.Len(t, b.topics, 1)
	unsub2()
	assert.Empty(t, b.topics)

	// Unsubscribing after Close leaves a later topic for the same id alone.
	_, unsubOld := b.Subscribe("t2")
	b.Close("t2")
	_, unsubNew := b.Subscribe("t2")
	defer unsubNew()
	unsubOld()
	assert.Len(t, b.topics, 1)
}
