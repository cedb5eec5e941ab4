package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestBroker_OrderAndTerminalClose(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	b.Publish("run-1", Event{Type: EventStatus, Message: "started"})
	b.Publish("run-1", Event{Type: EventLayerComplete, Dimension: 1})
	b.Publish("run-1", Event{Type: EventScoringComplete})
	b.Publish("run-1", Event{Type: EventComplete})

	events := collect(ch)
	require.Len(t, events, 4)

	// Sequence numbers are strictly increasing in publish order and the
	// terminal event is last.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
	assert.Equal(t, EventComplete, events[3].Type)
}

func TestBroker_PublishAfterTerminalDropped(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	b.Publish("run-1", Event{Type: EventComplete})
	b.Publish("run-1", Event{Type: EventStatus, Message: "too late"})

	events := collect(ch)
	require.Len(t, events, 1)
	assert.Equal(t, EventComplete, events[0].Type)
}

func TestBroker_LateSubscriberSeesTerminal(t *testing.T) {
	b := NewBroker()
	b.Publish("run-1", Event{Type: EventStatus})
	b.Publish("run-1", Event{Type: EventComplete})

	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	events := collect(ch)
	require.Len(t, events, 1)
	assert.Equal(t, EventComplete, events[0].Type)
}

func TestBroker_SlowSubscriberGetsGap(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("run-1")
	defer cancel()

	// Overflow the subscriber buffer without draining.
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish("run-1", Event{Type: EventStatus, Message: fmt.Sprintf("ev %d", i)})
	}
	b.Publish("run-1", Event{Type: EventComplete})

	events := collect(ch)
	require.NotEmpty(t, events)

	var sawGap bool
	for _, ev := range events {
		if ev.Type == EventGap {
			sawGap = true
		}
	}
	assert.True(t, sawGap, "expected a gap marker after buffer overflow")
	assert.Equal(t, EventComplete, events[len(events)-1].Type)
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("run-1")
	cancel()

	b.Publish("run-1", Event{Type: EventStatus})

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestBroker_IndependentTopics(t *testing.T) {
	b := NewBroker()
	ch1, cancel1 := b.Subscribe("run-1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("run-2")
	defer cancel2()

	b.Publish("run-1", Event{Type: EventComplete})
	b.Publish("run-2", Event{Type: EventError, Message: "boom"})

	ev1 := collect(ch1)
	ev2 := collect(ch2)
	require.Len(t, ev1, 1)
	require.Len(t, ev2, 1)
	assert.Equal(t, "run-1", ev1[0].RunID)
	assert.Equal(t, "run-2", ev2[0].RunID)
	assert.Equal(t, EventError, ev2[0].Type)
}

func TestBroker_Drop(t *testing.T) {
	b := NewBroker()
	b.Publish("run-1", Event{Type: EventComplete})
	b.Drop("run-1")

	// A fresh topic after Drop starts over, so a new subscriber blocks on
	// events rather than receiving the old terminal.
	ch, cancel := b.Subscribe("run-1")
	defer cancel()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}
