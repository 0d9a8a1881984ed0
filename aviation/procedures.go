// aviation/procedures.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"github.com/avsim/fms/math"
)

// Transition is one named variant of a procedure: either a runway
// transition (legs between a specific runway and the procedure's common
// part) or an enroute transition (legs between the common part and the
// enroute structure).
type Transition struct {
	Name      string
	Waypoints WaypointArray
}

// Procedure is a departure (SID) or arrival (STAR). For a departure the
// flown order is runway transition, common legs, enroute transition; for
// an arrival it is mirrored: enroute transition, common legs, runway
// transition.
type Procedure struct {
	Name               string
	RunwayTransitions  []Transition
	CommonLegs         WaypointArray
	EnrouteTransitions []Transition
}

// FindRunwayTransition returns the index of the transition serving the
// given runway, or -1. Used to carry the runway selection over when a new
// procedure is picked.
func (p *Procedure) FindRunwayTransition(rwy string) int {
	for i, t := range p.RunwayTransitions {
		if runwayMatchesTransition(rwy, t.Name) {
			return i
		}
	}
	return -1
}

// Approach is an instrument approach procedure: transitions from various
// initial fixes plus the final legs to the runway.
type Approach struct {
	Name        string // e.g. "I22L" for ILS 22L
	Runway      string
	Transitions []Transition
	Legs        WaypointArray
}

type Airport struct {
	ICAO       string
	Name       string
	Location   math.Point2LL
	Elevation  int
	Runways    []Runway
	Departures []Procedure
	Arrivals   []Procedure
	Approaches []Approach
}

func (ap *Airport) FindRunway(id string) int {
	for i, r := range ap.Runways {
		if r.Id == id {
			return i
		}
	}
	return -1
}

// concatTransitions flattens the given pieces into a single waypoint run,
// skipping a leading waypoint that duplicates the tail of what has
// already been accumulated (procedure data repeats the joining fix on
// both sides of each boundary).
func concatTransitions(pieces ...WaypointArray) WaypointArray {
	var run WaypointArray
	for _, p := range pieces {
		for i, wp := range p {
			if i == 0 && len(run) > 0 && run[len(run)-1].Fix == wp.Fix {
				continue
			}
			run = append(run, wp)
		}
	}
	return run
}

// DepartureWaypoints returns the flattened waypoint run for the given
// departure procedure and transition selections. A negative transition
// index means "not selected" and that piece is omitted.
func (p *Procedure) DepartureWaypoints(runwayTransition, enrouteTransition int) WaypointArray {
	var rwy, enr WaypointArray
	if runwayTransition >= 0 && runwayTransition < len(p.RunwayTransitions) {
		rwy = p.RunwayTransitions[runwayTransition].Waypoints
	}
	if enrouteTransition >= 0 && enrouteTransition < len(p.EnrouteTransitions) {
		enr = p.EnrouteTransitions[enrouteTransition].Waypoints
	}
	return concatTransitions(rwy, p.CommonLegs, enr)
}

// ArrivalWaypoints is the mirror of DepartureWaypoints: enroute
// transition first, runway transition last.
func (p *Procedure) ArrivalWaypoints(enrouteTransition, runwayTransition int) WaypointArray {
	var rwy, enr WaypointArray
	if runwayTransition >= 0 && runwayTransition < len(p.RunwayTransitions) {
		rwy = p.RunwayTransitions[runwayTransition].Waypoints
	}
	if enrouteTransition >= 0 && enrouteTransition < len(p.EnrouteTransitions) {
		enr = p.EnrouteTransitions[enrouteTransition].Waypoints
	}
	return concatTransitions(enr, p.CommonLegs, rwy)
}

// ApproachWaypoints returns the approach's waypoint run for the given
// transition selection followed by the final legs.
func (a *Approach) ApproachWaypoints(transition int) WaypointArray {
	var tr WaypointArray
	if transition >= 0 && transition < len(a.Transitions) {
		tr = a.Transitions[transition].Waypoints
	}
	return concatTransitions(tr, a.Legs)
}
