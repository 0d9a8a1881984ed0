// fms/resolver_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"errors"
	"testing"

	"github.com/avsim/fms/aviation"
)

func idents(wps aviation.WaypointArray) []string {
	var out []string
	for _, wp := range wps {
		out = append(out, wp.Fix)
	}
	return out
}

func TestDepartureWaypointRun(t *testing.T) {
	h := newTestHarness(t)

	run, err := h.e.DepartureWaypoints("KAAA", 0, 0, 0)
	if err != nil {
		t.Fatalf("DepartureWaypoints: %v", err)
	}
	// ALPHA joins the runway transition to the common legs and BRAVO
	// joins the common legs to the enroute transition; each appears once.
	want := []string{"ALPHA", "BRAVO", "CHARL"}
	if got := idents(run); !eqStrings(got, want) {
		t.Errorf("departure run = %v, want %v", got, want)
	}

	// Unselected transitions are simply omitted.
	run, err = h.e.DepartureWaypoints("KAAA", 0, -1, -1)
	if err != nil {
		t.Fatalf("DepartureWaypoints: %v", err)
	}
	if got := idents(run); !eqStrings(got, []string{"ALPHA", "BRAVO"}) {
		t.Errorf("departure run without transitions = %v", got)
	}
}

func TestArrivalWaypointRun(t *testing.T) {
	h := newTestHarness(t)

	run, err := h.e.ArrivalWaypoints("KBBB", 0, 0, 0)
	if err != nil {
		t.Fatalf("ArrivalWaypoints: %v", err)
	}
	want := []string{"MIDDL", "DELTA", "ECHO"}
	if got := idents(run); !eqStrings(got, want) {
		t.Errorf("arrival run = %v, want %v", got, want)
	}
}

func TestResolverErrors(t *testing.T) {
	h := newTestHarness(t)

	if _, err := h.e.DepartureWaypoints("KZZZ", 0, -1, -1); !errors.Is(err, aviation.ErrNoMatchingAirport) {
		t.Errorf("unknown airport: %v", err)
	}
	if _, err := h.e.DepartureWaypoints("KAAA", 7, -1, -1); !errors.Is(err, ErrUnknownProcedure) {
		t.Errorf("out-of-range procedure: %v", err)
	}
	if run, err := h.e.ArrivalWaypoints("KBBB", -1, -1, -1); err != nil || run != nil {
		t.Errorf("unselected procedure: run=%v err=%v", run, err)
	}
}

func TestRunwayTransitionCarryOver(t *testing.T) {
	h := newTestHarness(t)

	// Selecting a departure procedure with a runway already chosen
	// auto-selects the transition serving that runway.
	h.mustDo(t, "set origin", h.e.SetOrigin("KAAA", nil))
	h.e.SetOriginRunway(0, nil) // 04L
	h.pump(30)
	h.e.SetDepartureProcedure(0, nil) // AAA1, has RW04L
	h.pump(30)

	fp := h.e.FlightPlan(TemporaryBuffer)
	if fp.DepartureRunwayTransition != 0 {
		t.Errorf("runway transition %d, want auto-selected 0", fp.DepartureRunwayTransition)
	}

	// AAA2's only transition is "RW04B", which serves both parallel
	// runways.
	h.e.SetDepartureProcedure(1, nil)
	h.pump(30)
	fp = h.e.FlightPlan(TemporaryBuffer)
	if fp.DepartureRunwayTransition != 0 {
		t.Errorf("parallel runway transition %d, want auto-selected 0", fp.DepartureRunwayTransition)
	}

	// Runway 04R has no transition in AAA1: the selection is left unset.
	h.e.SetOriginRunway(1, nil)
	h.pump(30)
	h.e.SetDepartureProcedure(0, nil)
	h.pump(30)
	fp = h.e.FlightPlan(TemporaryBuffer)
	if fp.DepartureRunwayTransition != -1 {
		t.Errorf("runway transition %d, want unset", fp.DepartureRunwayTransition)
	}
}

func TestAutoRunwayTransition(t *testing.T) {
	proc := &aviation.Procedure{
		RunwayTransitions: []aviation.Transition{{Name: "RW22B"}, {Name: "RW13L"}},
	}
	if got := AutoRunwayTransition(proc, "22R"); got != 0 {
		t.Errorf("22R -> %d, want 0 (matches 22B)", got)
	}
	if got := AutoRunwayTransition(proc, "13L"); got != 1 {
		t.Errorf("13L -> %d, want 1", got)
	}
	if got := AutoRunwayTransition(proc, "31"); got != -1 {
		t.Errorf("31 -> %d, want -1", got)
	}
	if got := AutoRunwayTransition(proc, ""); got != -1 {
		t.Errorf("empty runway -> %d, want -1", got)
	}
}
