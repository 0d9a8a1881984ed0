// fms/eventstream_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"testing"
)

func TestEventStreamBasics(t *testing.T) {
	es := NewEventStream(nil)

	// Events posted with no subscribers are dropped.
	es.Post(Event{Type: PlanRefreshedEvent})

	sub := es.Subscribe()
	if evs := sub.Get(); len(evs) != 0 {
		t.Errorf("new subscription returned %d events", len(evs))
	}

	es.Post(Event{Type: PlanRefreshedEvent, Buffer: 0, Version: 3})
	es.Post(Event{Type: BufferSwitchedEvent, Buffer: 1, Version: 4})

	evs := sub.Get()
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2", len(evs))
	}
	if evs[0].Type != PlanRefreshedEvent || evs[1].Type != BufferSwitchedEvent {
		t.Errorf("events out of order: %v, %v", evs[0].Type, evs[1].Type)
	}
	if evs[1].Version != 4 {
		t.Errorf("event version %d, want 4", evs[1].Version)
	}

	// A second Get returns nothing new.
	if evs := sub.Get(); len(evs) != 0 {
		t.Errorf("second Get returned %d events", len(evs))
	}
}

func TestEventStreamMultipleSubscribers(t *testing.T) {
	es := NewEventStream(nil)
	a := es.Subscribe()
	es.Post(Event{Type: ActiveLegChangedEvent, ActiveIdent: "MIDDL", ActiveIndex: 1})

	// b subscribes after the post and must not see it.
	b := es.Subscribe()
	es.Post(Event{Type: DecelPointUpdatedEvent})

	if evs := a.Get(); len(evs) != 2 {
		t.Errorf("first subscriber got %d events, want 2", len(evs))
	}
	if evs := b.Get(); len(evs) != 1 || evs[0].Type != DecelPointUpdatedEvent {
		t.Errorf("late subscriber got %v", evs)
	}

	a.Unsubscribe()
	es.Post(Event{Type: PlanRefreshedEvent})
	if evs := b.Get(); len(evs) != 1 {
		t.Errorf("remaining subscriber got %d events, want 1", len(evs))
	}
}

func TestEngineEventDelivery(t *testing.T) {
	h := newTestHarness(t)

	h.buildPlan(t)

	var sawRefresh, sawSwitch, sawEdit, sawLeg bool
	for _, ev := range h.sub.Get() {
		switch ev.Type {
		case PlanRefreshedEvent:
			sawRefresh = true
		case BufferSwitchedEvent:
			sawSwitch = true
		case EditStateChangedEvent:
			sawEdit = true
		case ActiveLegChangedEvent:
			sawLeg = true
		}
	}
	if !sawRefresh || !sawSwitch || !sawEdit || !sawLeg {
		t.Errorf("missing events: refresh=%v switch=%v edit=%v leg=%v",
			sawRefresh, sawSwitch, sawEdit, sawLeg)
	}
}
