// Package stream delivers ordered progress events for assessment runs to
// any number of subscribers. Producers never block: a slow subscriber
// loses intermediate events and receives a gap marker instead.
package stream

import (
	"sync"
	"time"
)

// EventType identifies a progress event.
type EventType string

const (
	EventStatus          EventType = "status"
	EventLayerComplete   EventType = "layer_complete"
	EventScoringComplete EventType = "scoring_complete"
	EventComplete        EventType = "complete"
	EventError           EventType = "error"
	EventGap             EventType = "gap"
)

// Event is one progress update for a run. Payload fields are populated
// according to Type.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Seq       uint64         `json:"seq"`
	Message   string         `json:"message,omitempty"`
	Dimension int            `json:"dimension,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

const subscriberBuffer = 64

type subscriber struct {
	ch      chan Event
	lagging bool
}

type topic struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[*subscriber]struct{}
	closed bool
	// history lets late subscribers of a finished run observe the
	// terminal event instead of a channel that never delivers.
	terminal *Event
}

// Broker fans out per-run events. One topic per run ID, created lazily
// on first publish or subscribe.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*topic
	now    func() time.Time
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		topics: make(map[string]*topic),
		now:    time.Now,
	}
}

func (b *Broker) topicFor(runID string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[runID]
	if !ok {
		t = &topic{subs: make(map[*subscriber]struct{})}
		b.topics[runID] = t
	}
	return t
}

// Publish delivers an event to all subscribers of the run. Sequence
// numbers are assigned here, so publish order defines event order. A
// terminal event closes the topic; later publishes are dropped.
func (b *Broker) Publish(runID string, ev Event) {
	t := b.topicFor(runID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.seq++
	ev.Seq = t.seq
	ev.RunID = runID
	if ev.At.IsZero() {
		ev.At = b.now()
	}

	if ev.Terminal() {
		// The terminal event must reach every subscriber, so evict
		// buffered events if that is what it takes.
		t.closed = true
		t.terminal = &ev
		for s := range t.subs {
			if s.lagging {
				forceSend(s.ch, Event{Type: EventGap, RunID: ev.RunID, Seq: ev.Seq,
					At: ev.At, Message: "events dropped"})
			}
			forceSend(s.ch, ev)
			close(s.ch)
		}
		t.subs = make(map[*subscriber]struct{})
		return
	}

	for s := range t.subs {
		t.deliver(s, ev)
	}
}

// forceSend delivers to a possibly-full buffered channel by discarding
// the oldest queued events until the send succeeds.
func forceSend(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// deliver sends without blocking. On a full buffer the subscriber is
// marked lagging; the next successful send is preceded by a gap marker
// so consumers know events were skipped.
func (t *topic) deliver(s *subscriber, ev Event) {
	if s.lagging {
		gap := Event{Type: EventGap, RunID: ev.RunID, Seq: ev.Seq, At: ev.At,
			Message: "events dropped"}
		select {
		case s.ch <- gap:
			s.lagging = false
		default:
			return
		}
	}
	select {
	case s.ch <- ev:
	default:
		s.lagging = true
	}
}

// Subscribe returns a channel of events for the run and a cancel
// function. The channel closes after a terminal event or on cancel.
// Subscribing to an already finished run yields just the terminal event.
func (b *Broker) Subscribe(runID string) (<-chan Event, func()) {
	t := b.topicFor(runID)

	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	t.mu.Lock()
	if t.closed {
		if t.terminal != nil {
			s.ch <- *t.terminal
		}
		close(s.ch)
		t.mu.Unlock()
		return s.ch, func() {}
	}
	t.subs[s] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[s]; ok {
			delete(t.subs, s)
			close(s.ch)
		}
	}
	return s.ch, cancel
}

// Drop removes a finished run's topic. Safe to call for unknown runs.
func (b *Broker) Drop(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.topics, runID)
}
