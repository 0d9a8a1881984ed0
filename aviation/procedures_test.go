// aviation/procedures_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"slices"
	"testing"
)

func wps(fixes ...string) WaypointArray {
	wa := make(WaypointArray, len(fixes))
	for i, f := range fixes {
		wa[i] = Waypoint{Fix: f, Key: FixKey("FIX/" + f)}
	}
	return wa
}

func fixes(wa WaypointArray) []string {
	var s []string
	for _, wp := range wa {
		s = append(s, wp.Fix)
	}
	return s
}

func TestDepartureWaypoints(t *testing.T) {
	proc := Procedure{
		Name: "TEST1",
		RunwayTransitions: []Transition{
			{Name: "RW04L", Waypoints: wps("AAA", "BBB")},
			{Name: "RW22B", Waypoints: wps("CCC", "BBB")},
		},
		CommonLegs: wps("BBB", "DDD"),
		EnrouteTransitions: []Transition{
			{Name: "EEE", Waypoints: wps("DDD", "EEE")},
		},
	}

	// The joining fix appears on both sides of each boundary in the
	// procedure data and must come out once.
	if got := fixes(proc.DepartureWaypoints(0, 0)); !slices.Equal(got, []string{"AAA", "BBB", "DDD", "EEE"}) {
		t.Errorf("full departure run: %v", got)
	}
	if got := fixes(proc.DepartureWaypoints(1, -1)); !slices.Equal(got, []string{"CCC", "BBB", "DDD"}) {
		t.Errorf("runway transition only: %v", got)
	}
	if got := fixes(proc.DepartureWaypoints(-1, -1)); !slices.Equal(got, []string{"BBB", "DDD"}) {
		t.Errorf("common legs only: %v", got)
	}
	// Out-of-range selections are treated as unselected.
	if got := fixes(proc.DepartureWaypoints(5, 5)); !slices.Equal(got, []string{"BBB", "DDD"}) {
		t.Errorf("out of range transitions: %v", got)
	}
}

func TestArrivalWaypoints(t *testing.T) {
	proc := Procedure{
		Name: "TEST2",
		EnrouteTransitions: []Transition{
			{Name: "AAA", Waypoints: wps("AAA", "BBB")},
		},
		CommonLegs: wps("BBB", "CCC"),
		RunwayTransitions: []Transition{
			{Name: "RW04R", Waypoints: wps("CCC", "DDD")},
		},
	}

	// Arrivals are flown enroute transition first, runway transition last.
	if got := fixes(proc.ArrivalWaypoints(0, 0)); !slices.Equal(got, []string{"AAA", "BBB", "CCC", "DDD"}) {
		t.Errorf("full arrival run: %v", got)
	}
	if got := fixes(proc.ArrivalWaypoints(-1, 0)); !slices.Equal(got, []string{"BBB", "CCC", "DDD"}) {
		t.Errorf("no enroute transition: %v", got)
	}
}

func TestApproachWaypoints(t *testing.T) {
	ap := Approach{
		Name:   "I04R",
		Runway: "04R",
		Transitions: []Transition{
			{Name: "FINLL", Waypoints: wps("FINLL", "FAFFY")},
		},
		Legs: wps("FAFFY", "RW04R"),
	}

	if got := fixes(ap.ApproachWaypoints(0)); !slices.Equal(got, []string{"FINLL", "FAFFY", "RW04R"}) {
		t.Errorf("approach with transition: %v", got)
	}
	if got := fixes(ap.ApproachWaypoints(-1)); !slices.Equal(got, []string{"FAFFY", "RW04R"}) {
		t.Errorf("final legs only: %v", got)
	}
}

func TestFindRunwayTransition(t *testing.T) {
	proc := Procedure{
		Name: "TEST3",
		RunwayTransitions: []Transition{
			{Name: "RW04L"},
			{Name: "RW22B"},
		},
	}

	for _, tc := range []struct {
		rwy  string
		want int
	}{
		{"04L", 0},
		{"22L", 1}, // "B" suffix covers both parallels
		{"22R", 1},
		{"04R", -1},
		{"", -1},
	} {
		if got := proc.FindRunwayTransition(tc.rwy); got != tc.want {
			t.Errorf("FindRunwayTransition(%q) = %d, want %d", tc.rwy, got, tc.want)
		}
	}
}

func TestFindRunway(t *testing.T) {
	ap := Airport{
		ICAO:    "KAAA",
		Runways: []Runway{{Id: "04L"}, {Id: "04R"}, {Id: "22L"}, {Id: "22R"}},
	}
	if idx := ap.FindRunway("22L"); idx != 2 {
		t.Errorf("FindRunway(22L) = %d, want 2", idx)
	}
	if idx := ap.FindRunway("13"); idx != -1 {
		t.Errorf("FindRunway(13) = %d, want -1", idx)
	}
}
