// fms/predict.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
)

const (
	// Floor for any ground speed used in ETA math.
	MinETAGroundSpeed = 50 // knots

	// Planning placeholder substituted when the live ground speed says
	// the aircraft isn't meaningfully moving yet.
	PlanningGroundSpeed = 400 // knots

	// Live ground speeds below this use the planning placeholder.
	planningSpeedThreshold = 100 // knots

	// Distance before the destination at which the deceleration point is
	// placed.
	DecelDistanceNM = 32
)

// predictionSpeed maps a live ground speed to the speed used for ETA
// chaining: the planning placeholder pre-departure, otherwise the live
// value clamped to the minimum.
func predictionSpeed(gs float32) float32 {
	if gs < planningSpeedThreshold {
		return PlanningGroundSpeed
	}
	return max(gs, MinETAGroundSpeed)
}

// PropagateLiveFields walks the waypoints from activeIndex forward,
// chaining great-circle leg distances from the current position to
// produce live distance/ETE/ETA per waypoint. Waypoints before the
// active index get zeroed live fields.
func PropagateLiveFields(wps aviation.WaypointArray, activeIndex int, position math.Point2LL,
	groundSpeed float32, nowUTCSeconds float64) {
	for i := range wps {
		wps[i].DistanceTo = 0
		wps[i].ETEMinutes = 0
		wps[i].ETAUTCSeconds = 0
	}
	if activeIndex < 0 || activeIndex >= len(wps) || position.IsZero() {
		return
	}

	gs := predictionSpeed(groundSpeed)
	d := math.NMDistance2LL(position, wps[activeIndex].Location)
	for i := activeIndex; i < len(wps); i++ {
		if i > activeIndex {
			d += math.NMDistance2LL(wps[i-1].Location, wps[i].Location)
		}
		wps[i].DistanceTo = d
		wps[i].ETEMinutes = d / gs * 60
		wps[i].ETAUTCSeconds = float32(nowUTCSeconds) + d/gs*3600
	}
}

// PropagateApproachLiveFields continues the live distance/ETA chain from
// the end of the flown buffer through the approach projection.
func PropagateApproachLiveFields(proj *ApproachProjection, fp *FlightPlan,
	groundSpeed float32, nowUTCSeconds float64) {
	n := len(fp.Waypoints)
	if n == 0 || len(proj.Waypoints) == 0 {
		return
	}
	last := fp.Waypoints[n-1]
	if last.DistanceTo == 0 && last.ETAUTCSeconds == 0 {
		// Live fields aren't populated yet; leave the projection's alone.
		return
	}

	gs := predictionSpeed(groundSpeed)
	d := last.DistanceTo + math.NMDistance2LL(last.Location, proj.Waypoints[0].Location)
	for i := range proj.Waypoints {
		if i > 0 {
			d += math.NMDistance2LL(proj.Waypoints[i-1].Location, proj.Waypoints[i].Location)
		}
		proj.Waypoints[i].DistanceTo = d
		proj.Waypoints[i].ETEMinutes = d / gs * 60
		proj.Waypoints[i].ETAUTCSeconds = float32(nowUTCSeconds) + d/gs*3600
	}
}

///////////////////////////////////////////////////////////////////////////
// Decel point

// DecelPoint is a synthetic, non-database waypoint placed a fixed
// distance before the destination along the flattened route geometry. It
// is recomputed whenever the approach projection or runway selection
// changes and is never persisted in either buffer.
type DecelPoint struct {
	Location math.Point2LL
	Altitude float32 // feet MSL, rounded up to the nearest 100

	// Distance back from the destination along the route.
	DistanceFromDestination float32

	// The real waypoint immediately before the decel point, used for
	// downstream altitude-constraint derivation. The index is into the
	// flattened enroute-then-approach sequence.
	PredecessorIndex int
	PredecessorIdent string
}

// ComputeDecelPoint flattens the combined route geometry (the flown
// buffer followed by the approach projection, if loaded) and linearly
// interpolates a point distanceNM back from the destination. It fails if
// there is no destination or the route is shorter than distanceNM.
func ComputeDecelPoint(fp *FlightPlan, proj *ApproachProjection, distanceNM float32) (*DecelPoint, bool) {
	if fp.DestinationICAO == "" {
		return nil, false
	}

	flat := fp.Waypoints
	if proj != nil && proj.Loaded && len(proj.Waypoints) > 0 {
		flat = append(append(aviation.WaypointArray{}, fp.Waypoints...), proj.Waypoints...)
	}
	if len(flat) < 2 {
		return nil, false
	}

	// Walk backward from the destination accumulating leg lengths until
	// the decel distance falls inside a leg.
	var acc float32
	for i := len(flat) - 1; i > 0; i-- {
		legLen := math.NMDistance2LL(flat[i-1].Location, flat[i].Location)
		if acc+legLen >= distanceNM {
			// The decel point lies on the leg from flat[i-1] to flat[i],
			// (distanceNM - acc) back from flat[i].
			back := distanceNM - acc
			t := 1 - back/legLen
			nmPerLongitude := math.NMPerLongitude(flat[i].Location)
			loc := math.Lerp2LL(t, flat[i-1].Location, flat[i].Location, nmPerLongitude)

			return &DecelPoint{
				Location:                loc,
				Altitude:                math.RoundUp100(boundingAltitude(flat[i-1], flat[i], t)),
				DistanceFromDestination: distanceNM,
				PredecessorIndex:        i - 1,
				PredecessorIdent:        flat[i-1].Fix,
			}, true
		}
		acc += legLen
	}
	return nil, false
}

// boundingAltitude picks the altitude for a point a fraction t of the
// way along the leg from a to b, interpolating when both endpoints have
// known altitudes and falling back to whichever is known otherwise.
func boundingAltitude(a, b aviation.Waypoint, t float32) float32 {
	switch {
	case a.Altitude > 0 && b.Altitude > 0:
		return math.Lerp(t, a.Altitude, b.Altitude)
	case a.Altitude > 0:
		return a.Altitude
	default:
		return b.Altitude
	}
}
