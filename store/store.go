// store/store.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package store defines the interface to the authoritative flight-plan
// store owned by the host simulation, along with an in-process reference
// implementation and a net/rpc adapter for an out-of-process store.
//
// Every operation is asynchronous: it returns a *Call immediately and the
// result becomes available later. There is no ordering guarantee across
// independent calls; the engine reconciles via the store's version
// counter. None of the operations support cancellation.
package store

import (
	"net/rpc"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/math"
)

// Call is the completion handle for an asynchronous store operation,
// following the shape of net/rpc's Call so that the RPC-backed store can
// pass them through directly.
type Call struct {
	Method string
	Reply  any
	Error  error
	Done   chan *Call // receives the call itself on completion

	rpcCall *rpc.Call // set iff the call is backed by net/rpc
}

func newCall(method string, reply any) *Call {
	return &Call{
		Method: method,
		Reply:  reply,
		Done:   make(chan *Call, 1),
	}
}

func (c *Call) complete(err error) *Call {
	c.Error = err
	c.Done <- c
	return c
}

// Finished reports whether the call has completed; after it has returned
// true once, the call's Reply and Error are valid. It must not be called
// again after it returns true.
func (c *Call) Finished() bool {
	if c.rpcCall != nil {
		select {
		case <-c.rpcCall.Done:
			c.Error = c.rpcCall.Error
			return true
		default:
			return false
		}
	}
	select {
	case <-c.Done:
		return true
	default:
		return false
	}
}

///////////////////////////////////////////////////////////////////////////
// Wire types

// FlightPlanData is the store's full description of one flight-plan
// buffer. An index of -1 means "not selected".
type FlightPlanData struct {
	Waypoints aviation.WaypointArray

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

	DirectToActive     bool
	DirectToIdent      string
	DirectToActivation math.Point2LL

	Version int64
}

// ApproachData is the store's description of the selected approach
// procedure's waypoint sequence.
type ApproachData struct {
	Waypoints aviation.WaypointArray
	Activated bool
}

///////////////////////////////////////////////////////////////////////////
// Store

// Store is the authoritative flight-plan store. Buffer 0 is the active
// flight plan and buffer 1 the temporary one; which the store treats as
// current is controlled with SwitchBuffer.
type Store interface {
	// Queries. The reply pointer is filled in before the Call completes.
	GetFlightPlan(buffer int, reply *FlightPlanData) *Call
	GetApproach(reply *ApproachData) *Call
	GetNextWaypointIdent(reply *string) *Call
	GetCurrentBuffer(reply *int) *Call
	GetVersion(reply *int64) *Call

	// Commands. Each successful command advances the store's version.
	SwitchBuffer(index int) *Call
	SetOrigin(buffer int, icao string) *Call
	SetDestination(buffer int, icao string) *Call
	SetOriginRunway(buffer, index int) *Call
	SetDestinationRunway(buffer, index int) *Call
	SetCruiseAltitude(buffer, feet int) *Call
	SetDepartureProcedure(buffer, index int) *Call
	SetDepartureRunwayTransition(buffer, index int) *Call
	SetDepartureEnrouteTransition(buffer, index int) *Call
	SetArrivalProcedure(buffer, index int) *Call
	SetArrivalRunwayTransition(buffer, index int) *Call
	SetArrivalEnrouteTransition(buffer, index int) *Call
	SetApproach(buffer, index int) *Call
	SetApproachTransition(buffer, index int) *Call
	AddWaypoint(buffer, index int, wp aviation.Waypoint) *Call
	RemoveWaypoint(buffer, index int) *Call
	CopyFlightPlan(from, to int) *Call
	ActivateApproach() *Call
	DeactivateApproach() *Call
	AutoActivateApproach() *Call
	ActivateDirectTo(ident string, position math.Point2LL) *Call
	CancelDirectTo() *Call
}
