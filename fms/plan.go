// fms/plan.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fms

import (
	"log/slog"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
	"github.com/avsim/fms/store"

	"github.com/brunoga/deep"
)

// Buffer indices; exactly these two buffers exist for the life of the
// engine.
const (
	ActiveBuffer    = 0
	TemporaryBuffer = 1
)

// DirectTo records an active direct-to: the target waypoint ident and
// the aircraft position at the moment of activation, so the direct leg
// can be drawn and predicted from where it actually began.
type DirectTo struct {
	Ident      string
	Activation math.Point2LL
}

// FlightPlan is the engine's cache of one store flight-plan buffer plus
// the derived fields (cumulative distances, live predictions) the engine
// maintains on top of it. It is replaced wholesale on refresh; nothing
// outside the engine's documented protocols may mutate it.
type FlightPlan struct {
	Waypoints aviation.WaypointArray

	// Segment sizes used to slice Waypoints into
	// departure/enroute/arrival regions.
	DepartureLegCount int
	ArrivalLegCount   int
	ApproachLegCount  int

	CruiseAltitude int

	OriginICAO        string
	DestinationICAO   string
	OriginRunway      int
	DestinationRunway int

	DepartureProcedure         int
	DepartureRunwayTransition  int
	DepartureEnrouteTransition int
	ArrivalProcedure           int
	ArrivalRunwayTransition    int
	ArrivalEnrouteTransition   int
	ApproachIndex              int
	ApproachTransition         int

	DirectTo *DirectTo

	// Store version this buffer's contents reflect.
	Version int64
}

func makeEmptyFlightPlan() *FlightPlan {
	return &FlightPlan{
		OriginRunway:               -1,
		DestinationRunway:          -1,
		DepartureProcedure:         -1,
		DepartureRunwayTransition:  -1,
		DepartureEnrouteTransition: -1,
		ArrivalProcedure:           -1,
		ArrivalRunwayTransition:    -1,
		ArrivalEnrouteTransition:   -1,
		ApproachIndex:              -1,
		ApproachTransition:         -1,
		Version:                    -1,
	}
}

// Clone returns a deep copy, used to populate the temporary buffer.
func (fp *FlightPlan) Clone() *FlightPlan {
	c := deep.MustCopy(*fp)
	return &c
}

// replaceFromStore rebuilds the plan from the store's data, reusing any
// cached waypoint that the store reports unchanged so that locally
// derived state (altitude-restriction provenance in particular) survives
// the refresh.
func (fp *FlightPlan) replaceFromStore(data *store.FlightPlanData) {
	old := fp.Waypoints
	wps := make(aviation.WaypointArray, len(data.Waypoints))
	for i, wp := range data.Waypoints {
		if i < len(old) && old[i].CoreEqual(wp) {
			wps[i] = old[i]
		} else {
			wps[i] = wp
		}
	}
	fp.Waypoints = wps
	fp.Waypoints.UpdateCumulativeDistances(0)

	fp.DepartureLegCount = data.DepartureLegCount
	fp.ArrivalLegCount = data.ArrivalLegCount
	fp.ApproachLegCount = data.ApproachLegCount
	fp.CruiseAltitude = data.CruiseAltitude
	fp.OriginICAO = data.OriginICAO
	fp.DestinationICAO = data.DestinationICAO
	fp.OriginRunway = data.OriginRunway
	fp.DestinationRunway = data.DestinationRunway
	fp.DepartureProcedure = data.DepartureProcedure
	fp.DepartureRunwayTransition = data.DepartureRunwayTransition
	fp.DepartureEnrouteTransition = data.DepartureEnrouteTransition
	fp.ArrivalProcedure = data.ArrivalProcedure
	fp.ArrivalRunwayTransition = data.ArrivalRunwayTransition
	fp.ArrivalEnrouteTransition = data.ArrivalEnrouteTransition
	fp.ApproachIndex = data.ApproachIndex
	fp.ApproachTransition = data.ApproachTransition

	if data.DirectToActive {
		fp.DirectTo = &DirectTo{Ident: data.DirectToIdent, Activation: data.DirectToActivation}
	} else {
		fp.DirectTo = nil
	}
	fp.Version = data.Version
}

// LastIndexBeforeApproach is the index of the last waypoint that belongs
// to the enroute/arrival portion of the plan; constraint lookups use it
// to keep approach legs out of enroute predictions.
func (fp *FlightPlan) LastIndexBeforeApproach() int {
	return len(fp.Waypoints) - 1
}

// DestinationIndex returns the index of the destination waypoint, or -1
// if no destination is set.
func (fp *FlightPlan) DestinationIndex() int {
	if fp.DestinationICAO == "" || len(fp.Waypoints) == 0 {
		return -1
	}
	return len(fp.Waypoints) - 1
}

func (fp *FlightPlan) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("origin", fp.OriginICAO),
		slog.String("destination", fp.DestinationICAO),
		slog.Int("waypoints", len(fp.Waypoints)),
		slog.Int64("version", fp.Version),
		slog.String("route", fp.Waypoints.Encode()))
}

///////////////////////////////////////////////////////////////////////////
// ApproachProjection

// ApproachProjection is the separate waypoint sequence for the selected
// approach procedure. It continues the enroute buffer's final leg
// geometrically, carries its own distance/ETA chain, and its Activated
// flag gates whether it or the enroute buffer supplies the active leg.
type ApproachProjection struct {
	Waypoints aviation.WaypointArray
	Activated bool
	Loaded    bool
}

// replaceFromStore rebuilds the projection, continuing the cumulative
// distance chain from the end of the given flight plan.
func (proj *ApproachProjection) replaceFromStore(data *store.ApproachData, fp *FlightPlan) {
	old := proj.Waypoints
	wps := make(aviation.WaypointArray, len(data.Waypoints))
	for i, wp := range data.Waypoints {
		if i < len(old) && old[i].CoreEqual(wp) {
			wps[i] = old[i]
		} else {
			wps[i] = wp
		}
	}
	proj.Waypoints = wps

	var base float32
	if n := len(fp.Waypoints); n > 0 {
		base = fp.Waypoints[n-1].CumulativeDistance
		if len(proj.Waypoints) > 0 {
			base += math.NMDistance2LL(fp.Waypoints[n-1].Location, proj.Waypoints[0].Location)
		}
	}
	proj.Waypoints.UpdateCumulativeDistances(base)
	proj.Activated = data.Activated
	proj.Loaded = true
}
