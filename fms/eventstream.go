// fms/eventstream.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/avsim/fms/log"
)

type EventType int

const (
	PlanRefreshedEvent EventType = iota
	ActiveLegChangedEvent
	BufferSwitchedEvent
	EditStateChangedEvent
	DecelPointUpdatedEvent
	NumEventTypes
)

func (t EventType) String() string {
	return [...]string{"PlanRefreshed", "ActiveLegChanged", "BufferSwitched",
		"EditStateChanged", "DecelPointUpdated"}[t]
}

// Event is posted to the stream when the engine's externally visible
// state changes. Only the fields relevant to the Type are set.
type Event struct {
	Type EventType

	// PlanRefreshedEvent, BufferSwitchedEvent
	Buffer  int
	Version int64

	// ActiveLegChangedEvent
	ActiveIdent string
	ActiveIndex int

	// EditStateChangedEvent
	EditState EditState

	// DecelPointUpdatedEvent
	DecelPoint *DecelPoint
}

func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String())}
	switch e.Type {
	case PlanRefreshedEvent, BufferSwitchedEvent:
		attrs = append(attrs, slog.Int("buffer", e.Buffer), slog.Int64("version", e.Version))
	case ActiveLegChangedEvent:
		attrs = append(attrs, slog.String("ident", e.ActiveIdent), slog.Int("index", e.ActiveIndex))
	case EditStateChangedEvent:
		attrs = append(attrs, slog.String("state", e.EditState.String()))
	case DecelPointUpdatedEvent:
		if e.DecelPoint != nil {
			attrs = append(attrs,
				slog.String("location", e.DecelPoint.Location.DDString()),
				slog.Float64("distance_from_destination",
					float64(e.DecelPoint.DistanceFromDestination)))
		}
	}
	return slog.GroupValue(attrs...)
}

// EventStream provides a basic pub/sub event interface that lets the
// engine post state-change events and any number of consumers (displays,
// autopilot couplers, tests) subscribe and receive them at their own
// pace.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	subscriptions map[*EventsSubscription]interface{}
	lastPost      time.Time
	warnedLong    bool
	lg            *log.Logger
}

type EventsSubscription struct {
	stream *EventStream
	// offset in the stream's event array up to which this subscriber has
	// consumed events so far.
	offset  int
	source  string
	lastGet time.Time
}

func (e *EventsSubscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("offset", e.offset),
		slog.String("source", e.source),
		slog.Time("last_get", e.lastGet))
}

func NewEventStream(lg *log.Logger) *EventStream {
	return &EventStream{
		subscriptions: make(map[*EventsSubscription]interface{}),
		lastPost:      time.Now(),
		lg:            lg,
	}
}

// Subscribe registers a new subscriber to the stream and returns its
// subscription handle.
func (e *EventStream) Subscribe() *EventsSubscription {
	// Record the subscriber's callsite to help debug subscribers that
	// aren't consuming events.
	_, fn, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", fn, line)

	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &EventsSubscription{
		stream:  e,
		offset:  len(e.events),
		source:  source,
		lastGet: time.Now(),
	}
	e.subscriptions[sub] = nil
	return sub
}

// Unsubscribe removes a subscriber from the subscriber list.
func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to unsubscribe invalid subscription: %+v", e)
	}
	delete(e.stream.subscriptions, e)
	e.stream = nil
}

// Post adds an event to the stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lg.Debug("posted event", slog.Any("event", event))

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.lastPost = time.Now()
		e.events = append(e.events, event)

		if len(e.events) > 1000 && !e.warnedLong {
			// It's likely that one of the subscribers is out to lunch if
			// the stream has grown this long.
			e.lg.Warn("Long EventStream", slog.Int("length", len(e.events)))
			e.warnedLong = true
		}
	}
}

// Get returns all of the events posted to the stream since the last time
// Get was called on this subscription. Events posted before Subscribe
// are never reported.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	if _, ok := e.stream.subscriptions[e]; !ok {
		e.stream.lg.Errorf("Attempted to get with unregistered subscription: %+v", e)
		return nil
	}

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)
	e.lastGet = time.Now()

	e.stream.compact()

	return events
}

// compact reclaims storage for events that all subscribers have seen so
// that stream memory usage doesn't grow without bound. Called with mu
// held.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		if sub.offset < minOffset {
			minOffset = sub.offset
		}
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}

		e.warnedLong = false
	}
}
