// fms/predict_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"testing"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
)

func wpAt(fix string, lon float32) aviation.Waypoint {
	return aviation.Waypoint{Fix: fix, Location: p(lon, 40)}
}

func TestPropagateLiveFields(t *testing.T) {
	wps := aviation.WaypointArray{wpAt("AAA", -74), wpAt("BBB", -73), wpAt("CCC", -72)}
	pos := p(-74.5, 40)

	PropagateLiveFields(wps, 1, pos, 450, 3600)

	if wps[0].DistanceTo != 0 || wps[0].ETEMinutes != 0 || wps[0].ETAUTCSeconds != 0 {
		t.Errorf("waypoint before active index has live fields: %+v", wps[0])
	}

	d1 := math.NMDistance2LL(pos, wps[1].Location)
	if math.Abs(wps[1].DistanceTo-d1) > 0.01 {
		t.Errorf("active waypoint distance %.2f, want %.2f", wps[1].DistanceTo, d1)
	}
	d2 := d1 + math.NMDistance2LL(wps[1].Location, wps[2].Location)
	if math.Abs(wps[2].DistanceTo-d2) > 0.01 {
		t.Errorf("next waypoint distance %.2f, want %.2f", wps[2].DistanceTo, d2)
	}

	wantETE := d1 / 450 * 60
	if math.Abs(wps[1].ETEMinutes-wantETE) > 0.01 {
		t.Errorf("ETE %.2f min, want %.2f", wps[1].ETEMinutes, wantETE)
	}
	wantETA := 3600 + d1/450*3600
	if math.Abs(wps[1].ETAUTCSeconds-wantETA) > 0.5 {
		t.Errorf("ETA %.1f, want %.1f", wps[1].ETAUTCSeconds, wantETA)
	}
}

func TestPredictionSpeedSubstitution(t *testing.T) {
	// Below the planning threshold the 400 kt placeholder applies, taxi
	// speed or parked alike.
	for _, gs := range []float32{0, 15, 99} {
		if got := predictionSpeed(gs); got != PlanningGroundSpeed {
			t.Errorf("predictionSpeed(%.0f) = %.0f, want %d", gs, got, PlanningGroundSpeed)
		}
	}
	// At or above the threshold the live value is used.
	for _, gs := range []float32{100, 250, 480} {
		if got := predictionSpeed(gs); got != gs {
			t.Errorf("predictionSpeed(%.0f) = %.0f, want the live value", gs, got)
		}
	}
}

func TestComputeDecelPointStraightSegment(t *testing.T) {
	// Final leg is ~68.9 nm, well past the decel distance, so the point
	// lands on it, 32 nm short of the destination.
	fp := &FlightPlan{
		DestinationICAO: "KBBB",
		Waypoints: aviation.WaypointArray{
			wpAt("KAAA", -74),
			wpAt("MIDDL", -71.5),
			wpAt("KBBB", -70),
		},
	}
	fp.Waypoints[2].Altitude = 20

	dp, ok := ComputeDecelPoint(fp, nil, DecelDistanceNM)
	if !ok {
		t.Fatal("no decel point on a 180 nm route")
	}

	dest := fp.Waypoints[2].Location
	if d := math.NMDistance2LL(dp.Location, dest); math.Abs(d-32) > 0.1 {
		t.Errorf("decel point %.3f nm from destination, want 32", d)
	}
	if dp.PredecessorIdent != "MIDDL" || dp.PredecessorIndex != 1 {
		t.Errorf("predecessor %q at %d, want MIDDL at 1", dp.PredecessorIdent, dp.PredecessorIndex)
	}
	if dp.Altitude != 100 {
		// 20 ft field elevation rounds up to the nearest 100.
		t.Errorf("decel altitude %.0f, want 100", dp.Altitude)
	}
}

func TestComputeDecelPointSpansLegs(t *testing.T) {
	// The last leg is only ~23 nm, so the decel point falls on the leg
	// before it.
	fp := &FlightPlan{
		DestinationICAO: "KBBB",
		Waypoints: aviation.WaypointArray{
			wpAt("KAAA", -74),
			wpAt("DELTA", -70.5),
			wpAt("KBBB", -70),
		},
	}

	dp, ok := ComputeDecelPoint(fp, nil, DecelDistanceNM)
	if !ok {
		t.Fatal("no decel point")
	}
	if dp.PredecessorIdent != "KAAA" || dp.PredecessorIndex != 0 {
		t.Errorf("predecessor %q at %d, want KAAA at 0", dp.PredecessorIdent, dp.PredecessorIndex)
	}
	dest := fp.Waypoints[2].Location
	d := math.NMDistance2LL(dp.Location, fp.Waypoints[1].Location) +
		math.NMDistance2LL(fp.Waypoints[1].Location, dest)
	if math.Abs(d-32) > 0.1 {
		t.Errorf("decel point %.3f nm from destination along the route, want 32", d)
	}
}

func TestComputeDecelPointIncludesApproach(t *testing.T) {
	// With an approach projection loaded, the flattened geometry extends
	// through it and the decel distance is measured from the approach
	// end.
	fp := &FlightPlan{
		DestinationICAO: "KBBB",
		Waypoints: aviation.WaypointArray{
			wpAt("KAAA", -74),
			wpAt("MIDDL", -71.5),
		},
	}
	proj := &ApproachProjection{
		Loaded:    true,
		Waypoints: aviation.WaypointArray{wpAt("FAFFY", -70.3), wpAt("RW04R", -70)},
	}

	dp, ok := ComputeDecelPoint(fp, proj, DecelDistanceNM)
	if !ok {
		t.Fatal("no decel point")
	}
	// 32 nm back from RW04R (-70) crosses FAFFY (-70.3, ~13.8 nm) into
	// the MIDDL-FAFFY leg.
	if dp.PredecessorIdent != "MIDDL" {
		t.Errorf("predecessor %q, want MIDDL", dp.PredecessorIdent)
	}
}

func TestComputeDecelPointShortRoute(t *testing.T) {
	fp := &FlightPlan{
		DestinationICAO: "KBBB",
		Waypoints: aviation.WaypointArray{
			wpAt("DELTA", -70.5),
			wpAt("KBBB", -70),
		},
	}
	if _, ok := ComputeDecelPoint(fp, nil, DecelDistanceNM); ok {
		t.Error("decel point computed on a route shorter than the decel distance")
	}
	if _, ok := ComputeDecelPoint(&FlightPlan{}, nil, DecelDistanceNM); ok {
		t.Error("decel point computed with no destination")
	}
}
