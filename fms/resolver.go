// fms/resolver.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"github.com/avsim/fms/aviation"
)

// The resolver turns the buffer's procedure/transition selections into
// flattened waypoint runs for display and prediction. The runs are
// identifier-only stubs where the database carries no geometry for a
// leg; callers resolve refinement (positions, restrictions) against the
// database as needed.

// DepartureWaypoints returns the flattened departure run for the given
// airport and selections: runway-transition legs, then the procedure's
// common legs, then enroute-transition legs. A negative procedure index
// yields an empty run.
func (e *Engine) DepartureWaypoints(origin string, procedure, runwayTransition, enrouteTransition int) (aviation.WaypointArray, error) {
	if procedure < 0 {
		return nil, nil
	}
	ap, err := e.db.Airport(origin)
	if err != nil {
		return nil, err
	}
	if procedure >= len(ap.Departures) {
		return nil, ErrUnknownProcedure
	}
	return ap.Departures[procedure].DepartureWaypoints(runwayTransition, enrouteTransition), nil
}

// ArrivalWaypoints returns the flattened arrival run, mirroring the
// departure order: enroute-transition legs, common legs, then
// runway-transition legs.
func (e *Engine) ArrivalWaypoints(destination string, procedure, enrouteTransition, runwayTransition int) (aviation.WaypointArray, error) {
	if procedure < 0 {
		return nil, nil
	}
	ap, err := e.db.Airport(destination)
	if err != nil {
		return nil, err
	}
	if procedure >= len(ap.Arrivals) {
		return nil, ErrUnknownProcedure
	}
	return ap.Arrivals[procedure].ArrivalWaypoints(enrouteTransition, runwayTransition), nil
}

// ApproachWaypoints returns the waypoint run for the given approach and
// transition selection at the destination airport.
func (e *Engine) ApproachWaypoints(destination string, approach, transition int) (aviation.WaypointArray, error) {
	if approach < 0 {
		return nil, nil
	}
	ap, err := e.db.Airport(destination)
	if err != nil {
		return nil, err
	}
	if approach >= len(ap.Approaches) {
		return nil, ErrUnknownProcedure
	}
	return ap.Approaches[approach].ApproachWaypoints(transition), nil
}

// AutoRunwayTransition returns the index of the runway transition of the
// given procedure that matches an already-selected runway, or -1 if none
// matches and the transition must be re-chosen explicitly.
func AutoRunwayTransition(proc *aviation.Procedure, runway string) int {
	if runway == "" {
		return -1
	}
	return proc.FindRunwayTransition(runway)
}
