package engine_test

import (
	"testing"

	"github.com/seantiz/dguard/internal/engine"
)

func TestEventBrokerSingleSubscriber(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("t1")
	defer unsub()

	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventQueued})
	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventRunning})
	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventCompleted, Output: "ok"})
	b.Close("t1")

	var got []string
	for ev := range ch {
		got = append(got, ev.Type)
	}

	want := []string{engine.EventQueued, engine.EventRunning, engine.EventCompleted}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEventBrokerMultipleSubscribers(t *testing.T) {
	b := engine.NewEventBroker()
	ch1, unsub1 := b.Subscribe("t1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("t1")
	defer unsub2()

	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventFailed, Error: "boom"})
	b.Close("t1")

	for i, ch := range []<-chan engine.Event{ch1, ch2} {
		var got []engine.Event
		for ev := range ch {
			got = append(got, ev)
		}
		if len(got) != 1 || got[0].Error != "boom" {
			t.Errorf("subscriber %d got %v", i, got)
		}
	}
}

func TestEventBrokerIsolatesTasks(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("t1")
	defer unsub()

	b.Publish(engine.Event{TaskID: "t2", Type: engine.EventRunning})
	b.Close("t1")

	for ev := range ch {
		t.Errorf("unexpected event for %s", ev.TaskID)
	}
}

func TestEventBrokerResubscribeAfterClose(t *testing.T) {
	b := engine.NewEventBroker()
	first, unsub1 := b.Subscribe("t1")
	defer unsub1()
	b.Close("t1")

	if _, ok := <-first; ok {
		t.Fatal("subscriber channel should be closed by Close")
	}

	second, unsub2 := b.Subscribe("t1")
	defer unsub2()
	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventRunning})

	select {
	case ev := <-second:
		if ev.Type != engine.EventRunning {
			t.Errorf("type = %q, want %q", ev.Type, engine.EventRunning)
		}
	default:
		t.Error("new subscriber after Close should get a fresh topic")
	}
}

func TestEventBrokerUnsubscribeStopsDelivery(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("t1")
	unsub()

	b.Publish(engine.Event{TaskID: "t1", Type: engine.EventRunning})
	b.Close("t1")

	select {
	case ev, ok := <-ch:
		if ok {
			t.Errorf("got unexpected event %v after unsubscribe", ev)
		}
	default:
	}
}

func TestEventBrokerPublishToUnknownTaskIsNoop(t *testing.T) {
	b := engine.NewEventBroker()
	b.Publish(engine.Event{TaskID: "nonexistent", Type: engine.EventRunning})
	b.Close("nonexistent")
}
