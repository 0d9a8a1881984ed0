// fms/fms_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"testing"
	"time"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
	"github.com/avsim/fms/store"
	"github.com/avsim/fms/util"
)

// All test geometry sits on latitude 40 so that leg lengths are plain
// longitude differences: one degree of longitude is about 45.96 nm here.

func p(lon, lat float32) math.Point2LL { return math.Point2LL{lon, lat} }

func stub(fix string) aviation.Waypoint { return aviation.Waypoint{Fix: fix} }

func testDatabase(t *testing.T) *aviation.Database {
	t.Helper()

	fixes := []aviation.Fix{
		{Key: "FIX/ALPHA", Ident: "ALPHA", Type: "FIX", Location: p(-73.5, 40)},
		{Key: "FIX/BRAVO", Ident: "BRAVO", Type: "FIX", Location: p(-73, 40)},
		{Key: "FIX/CHARL", Ident: "CHARL", Type: "FIX", Location: p(-72.5, 40)},
		{Key: "FIX/MIDDL", Ident: "MIDDL", Type: "FIX", Location: p(-71.5, 40)},
		{Key: "FIX/DELTA", Ident: "DELTA", Type: "FIX", Location: p(-71, 40)},
		{Key: "FIX/ECHO", Ident: "ECHO", Type: "FIX", Location: p(-70.6, 40)},
		{Key: "FIX/FINLL", Ident: "FINLL", Type: "FIX", Location: p(-70.5, 40)},
		{Key: "FIX/FAFFY", Ident: "FAFFY", Type: "FIX", Location: p(-70.3, 40)},
		{Key: "FIX/DUPE.1", Ident: "DUPE", Type: "FIX", Location: p(-72, 40)},
		{Key: "FIX/DUPE.2", Ident: "DUPE", Type: "NDB", Location: p(-72.1, 40.2)},
	}

	airports := map[string]aviation.Airport{
		"KAAA": {
			ICAO:      "KAAA",
			Name:      "Alpha Field",
			Location:  p(-74, 40),
			Elevation: 13,
			Runways: []aviation.Runway{
				{Id: "04L", Heading: 40, Threshold: p(-74, 40), Elevation: 13},
				{Id: "04R", Heading: 40, Threshold: p(-74.01, 40), Elevation: 13},
			},
			Departures: []aviation.Procedure{
				{
					Name:              "AAA1",
					RunwayTransitions: []aviation.Transition{{Name: "RW04L", Waypoints: aviation.WaypointArray{stub("ALPHA")}}},
					CommonLegs:        aviation.WaypointArray{stub("ALPHA"), stub("BRAVO")},
					EnrouteTransitions: []aviation.Transition{
						{Name: "CHARL", Waypoints: aviation.WaypointArray{stub("BRAVO"), stub("CHARL")}},
					},
				},
				{
					Name:              "AAA2",
					RunwayTransitions: []aviation.Transition{{Name: "RW04B", Waypoints: aviation.WaypointArray{stub("ALPHA")}}},
					CommonLegs:        aviation.WaypointArray{stub("BRAVO")},
				},
			},
		},
		"KBBB": {
			ICAO:      "KBBB",
			Name:      "Bravo Intl",
			Location:  p(-70, 40),
			Elevation: 20,
			Runways: []aviation.Runway{
				{Id: "04R", Heading: 40, Threshold: p(-70, 40), Elevation: 20},
			},
			Arrivals: []aviation.Procedure{
				{
					Name: "BBB1",
					EnrouteTransitions: []aviation.Transition{
						{Name: "MIDDL", Waypoints: aviation.WaypointArray{stub("MIDDL")}},
					},
					CommonLegs:        aviation.WaypointArray{stub("MIDDL"), stub("DELTA")},
					RunwayTransitions: []aviation.Transition{{Name: "RW04R", Waypoints: aviation.WaypointArray{stub("ECHO")}}},
				},
			},
			Approaches: []aviation.Approach{
				{
					Name:   "I04R",
					Runway: "04R",
					Transitions: []aviation.Transition{
						{Name: "FINLL", Waypoints: aviation.WaypointArray{stub("FINLL")}},
					},
					Legs: aviation.WaypointArray{stub("FAFFY")},
				},
			},
		},
	}

	var e util.ErrorLogger
	db := aviation.MakeDatabase(airports, fixes, &e)
	if e.HaveErrors() {
		t.Fatalf("test database validation: %s", e.String())
	}
	return db
}

type testPos struct {
	sit Situation
}

func (tp *testPos) Situation() Situation { return tp.sit }

type testHarness struct {
	e   *Engine
	sim *store.Sim
	pos *testPos
	sub *EventsSubscription
	now time.Time
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	db := testDatabase(t)
	sim := store.NewSim(db, nil)
	pos := &testPos{}
	es := NewEventStream(nil)
	e := New(sim, db, pos, es, nil)
	e.SwitchPollInterval = time.Nanosecond

	h := &testHarness{e: e, sim: sim, pos: pos, sub: es.Subscribe(), now: time.Now()}
	h.pump(20)
	return h
}

// pump runs n engine updates with small time steps, enough to drain any
// queued operation against the synchronously completing Sim.
func (h *testHarness) pump(n int) {
	for i := 0; i < n; i++ {
		h.now = h.now.Add(2 * time.Millisecond)
		h.e.Update(h.now)
	}
}

// tickPump advances time past the 1 Hz tick on every update.
func (h *testHarness) tickPump(n int) {
	for i := 0; i < n; i++ {
		h.now = h.now.Add(1100 * time.Millisecond)
		h.e.Update(h.now)
	}
}

// events drains the harness subscription, returning events of the given
// type.
func (h *testHarness) events(ty EventType) []Event {
	var out []Event
	for _, ev := range h.sub.Get() {
		if ev.Type == ty {
			out = append(out, ev)
		}
	}
	return out
}

func (h *testHarness) mustDo(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
	h.pump(30)
}

// buildPlan sets up the committed route KAAA -> MIDDL -> KBBB in the
// active buffer.
func (h *testHarness) buildPlan(t *testing.T) {
	t.Helper()
	h.mustDo(t, "set origin", h.e.SetOrigin("KAAA", nil))
	h.mustDo(t, "set destination", h.e.SetDestination("KBBB", nil))
	h.mustDo(t, "add MIDDL", h.e.AddWaypoint(1, "MIDDL", nil))

	var commitErr error
	committed := false
	h.mustDo(t, "commit", h.e.Commit(func(err error) { commitErr = err; committed = true }))
	if !committed {
		t.Fatal("commit did not complete")
	}
	if commitErr != nil {
		t.Fatalf("commit: %v", commitErr)
	}
}

func route(fp *FlightPlan) []string {
	var idents []string
	for _, wp := range fp.Waypoints {
		idents = append(idents, wp.Fix)
	}
	return idents
}

func eqStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
