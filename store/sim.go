// store/sim.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/log"
	"github.com/avsim/fms/math"

	"github.com/brunoga/deep"
)

var (
	ErrInvalidBufferIndex   = errors.New("Invalid flight-plan buffer index")
	ErrInvalidWaypointIndex = errors.New("Invalid waypoint index")
	ErrInvalidProcedure     = errors.New("Invalid procedure index")
	ErrNoOriginAirport      = errors.New("No origin airport set")
	ErrNoDestinationAirport = errors.New("No destination airport set")
	ErrNoApproachSelected   = errors.New("No approach selected")
)

// Sim is the in-process reference implementation of Store: the
// authoritative flight-plan owner the way the host simulation would be.
// All calls complete immediately (the *Call indirection is kept so that
// callers exercise the same completion path as with a remote store);
// eventual consistency of buffer switches is modeled explicitly via
// SwitchVisibleAfter.
type Sim struct {
	mu sync.Mutex

	db *aviation.Database
	lg *log.Logger

	plans         [2]FlightPlanData
	approach      ApproachData
	currentBuffer int
	version       int64

	nextWaypointIdent string

	// A requested buffer switch becomes visible to GetCurrentBuffer only
	// after this many polls (0 = immediately). DropSwitches discards
	// switch requests entirely, for exercising the poll-budget path.
	SwitchVisibleAfter int
	DropSwitches       bool

	pendingSwitch      int
	pendingSwitchPolls int
	switchPending      bool
}

func NewSim(db *aviation.Database, lg *log.Logger) *Sim {
	s := &Sim{db: db, lg: lg}
	for i := range s.plans {
		s.plans[i] = emptyPlan()
	}
	return s
}

func emptyPlan() FlightPlanData {
	return FlightPlanData{
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
	}
}

// call runs f under the lock and returns an already completed Call.
func (s *Sim) call(method string, reply any, f func() error) *Call {
	s.mu.Lock()
	err := f()
	s.mu.Unlock()
	return newCall(method, reply).complete(err)
}

// command is call() plus the version bump every successful mutation gets.
func (s *Sim) command(method string, f func() error) *Call {
	return s.call(method, nil, func() error {
		err := f()
		if err == nil {
			s.version++
		} else {
			s.lg.Debug("command rejected", "method", method, "error", err)
		}
		return err
	})
}

func (s *Sim) plan(buffer int) (*FlightPlanData, error) {
	if buffer < 0 || buffer > 1 {
		return nil, ErrInvalidBufferIndex
	}
	return &s.plans[buffer], nil
}

///////////////////////////////////////////////////////////////////////////
// Queries

func (s *Sim) GetFlightPlan(buffer int, reply *FlightPlanData) *Call {
	return s.call("Sim.GetFlightPlan", reply, func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		*reply = deep.MustCopy(*fp)
		reply.Version = s.version
		return nil
	})
}

func (s *Sim) GetApproach(reply *ApproachData) *Call {
	return s.call("Sim.GetApproach", reply, func() error {
		*reply = deep.MustCopy(s.approach)
		return nil
	})
}

func (s *Sim) GetNextWaypointIdent(reply *string) *Call {
	return s.call("Sim.GetNextWaypointIdent", reply, func() error {
		*reply = s.nextWaypointIdent
		return nil
	})
}

func (s *Sim) GetCurrentBuffer(reply *int) *Call {
	return s.call("Sim.GetCurrentBuffer", reply, func() error {
		if s.switchPending {
			s.pendingSwitchPolls++
			if s.pendingSwitchPolls >= s.SwitchVisibleAfter {
				s.currentBuffer = s.pendingSwitch
				s.switchPending = false
			}
		}
		*reply = s.currentBuffer
		return nil
	})
}

func (s *Sim) GetVersion(reply *int64) *Call {
	return s.call("Sim.GetVersion", reply, func() error {
		*reply = s.version
		return nil
	})
}

///////////////////////////////////////////////////////////////////////////
// Commands

func (s *Sim) SwitchBuffer(index int) *Call {
	return s.command("Sim.SwitchBuffer", func() error {
		if index < 0 || index > 1 {
			return ErrInvalidBufferIndex
		}
		if s.DropSwitches {
			return nil // accepted, never applied
		}
		if s.SwitchVisibleAfter <= 0 {
			s.currentBuffer = index
		} else {
			s.pendingSwitch = index
			s.pendingSwitchPolls = 0
			s.switchPending = true
		}
		return nil
	})
}

func (s *Sim) CopyFlightPlan(from, to int) *Call {
	return s.command("Sim.CopyFlightPlan", func() error {
		src, err := s.plan(from)
		if err != nil {
			return err
		}
		dst, err := s.plan(to)
		if err != nil {
			return err
		}
		*dst = deep.MustCopy(*src)
		return nil
	})
}

func (s *Sim) SetOrigin(buffer int, icao string) *Call {
	return s.command("Sim.SetOrigin", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.db.Airport(icao)
		if err != nil {
			return err
		}

		fp.OriginICAO = ap.ICAO
		fp.OriginRunway = -1
		fp.DepartureProcedure = -1
		fp.DepartureRunwayTransition = -1
		fp.DepartureEnrouteTransition = -1

		wp := airportWaypoint(ap)
		if len(fp.Waypoints) > 0 && isAirportWaypoint(fp.Waypoints[0]) {
			fp.Waypoints[0] = wp
		} else {
			fp.Waypoints = append(aviation.WaypointArray{wp}, fp.Waypoints...)
		}
		s.rebuildDeparture(fp)
		return nil
	})
}

func (s *Sim) SetDestination(buffer int, icao string) *Call {
	return s.command("Sim.SetDestination", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.db.Airport(icao)
		if err != nil {
			return err
		}

		fp.DestinationICAO = ap.ICAO
		fp.DestinationRunway = -1
		fp.ArrivalProcedure = -1
		fp.ArrivalRunwayTransition = -1
		fp.ArrivalEnrouteTransition = -1
		fp.ApproachIndex = -1
		fp.ApproachTransition = -1

		wp := airportWaypoint(ap)
		wp.Leg = aviation.LegTypeTF
		if n := len(fp.Waypoints); n > 0 && isAirportWaypoint(fp.Waypoints[n-1]) && n > 1 {
			fp.Waypoints[n-1] = wp
		} else {
			fp.Waypoints = append(fp.Waypoints, wp)
		}
		s.rebuildArrival(fp)
		return nil
	})
}

func (s *Sim) SetOriginRunway(buffer, index int) *Call {
	return s.command("Sim.SetOriginRunway", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.origin(fp)
		if err != nil {
			return err
		}
		if index < -1 || index >= len(ap.Runways) {
			return ErrInvalidWaypointIndex
		}
		fp.OriginRunway = index
		s.rebuildDeparture(fp)
		return nil
	})
}

func (s *Sim) SetDestinationRunway(buffer, index int) *Call {
	return s.command("Sim.SetDestinationRunway", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.destination(fp)
		if err != nil {
			return err
		}
		if index < -1 || index >= len(ap.Runways) {
			return ErrInvalidWaypointIndex
		}
		fp.DestinationRunway = index
		s.rebuildArrival(fp)
		s.rebuildApproach(fp)
		return nil
	})
}

func (s *Sim) SetCruiseAltitude(buffer, feet int) *Call {
	return s.command("Sim.SetCruiseAltitude", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		fp.CruiseAltitude = feet
		return nil
	})
}

func (s *Sim) SetDepartureProcedure(buffer, index int) *Call {
	return s.command("Sim.SetDepartureProcedure", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.origin(fp)
		if err != nil {
			return err
		}
		if index < -1 || index >= len(ap.Departures) {
			return ErrInvalidProcedure
		}
		fp.DepartureProcedure = index
		fp.DepartureEnrouteTransition = -1

		// Carry the runway selection over to the new procedure's runway
		// transitions when one of them serves the selected runway.
		fp.DepartureRunwayTransition = -1
		if index >= 0 && fp.OriginRunway >= 0 && fp.OriginRunway < len(ap.Runways) {
			proc := &ap.Departures[index]
			fp.DepartureRunwayTransition = proc.FindRunwayTransition(ap.Runways[fp.OriginRunway].Id)
		}
		s.rebuildDeparture(fp)
		return nil
	})
}

func (s *Sim) SetDepartureRunwayTransition(buffer, index int) *Call {
	return s.command("Sim.SetDepartureRunwayTransition", func() error {
		return s.setTransition(buffer, index, func(fp *FlightPlanData) { fp.DepartureRunwayTransition = index })
	})
}

func (s *Sim) SetDepartureEnrouteTransition(buffer, index int) *Call {
	return s.command("Sim.SetDepartureEnrouteTransition", func() error {
		return s.setTransition(buffer, index, func(fp *FlightPlanData) { fp.DepartureEnrouteTransition = index })
	})
}

func (s *Sim) setTransition(buffer, index int, apply func(*FlightPlanData)) error {
	fp, err := s.plan(buffer)
	if err != nil {
		return err
	}
	if index < -1 {
		return ErrInvalidProcedure
	}
	apply(fp)
	s.rebuildDeparture(fp)
	s.rebuildArrival(fp)
	return nil
}

func (s *Sim) SetArrivalProcedure(buffer, index int) *Call {
	return s.command("Sim.SetArrivalProcedure", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.destination(fp)
		if err != nil {
			return err
		}
		if index < -1 || index >= len(ap.Arrivals) {
			return ErrInvalidProcedure
		}
		fp.ArrivalProcedure = index
		fp.ArrivalEnrouteTransition = -1
		fp.ArrivalRunwayTransition = -1
		if index >= 0 && fp.DestinationRunway >= 0 && fp.DestinationRunway < len(ap.Runways) {
			proc := &ap.Arrivals[index]
			fp.ArrivalRunwayTransition = proc.FindRunwayTransition(ap.Runways[fp.DestinationRunway].Id)
		}
		s.rebuildArrival(fp)
		return nil
	})
}

func (s *Sim) SetArrivalRunwayTransition(buffer, index int) *Call {
	return s.command("Sim.SetArrivalRunwayTransition", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		fp.ArrivalRunwayTransition = index
		s.rebuildArrival(fp)
		return nil
	})
}

func (s *Sim) SetArrivalEnrouteTransition(buffer, index int) *Call {
	return s.command("Sim.SetArrivalEnrouteTransition", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		fp.ArrivalEnrouteTransition = index
		s.rebuildArrival(fp)
		return nil
	})
}

func (s *Sim) SetApproach(buffer, index int) *Call {
	return s.command("Sim.SetApproach", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		ap, err := s.destination(fp)
		if err != nil {
			return err
		}
		if index < -1 || index >= len(ap.Approaches) {
			return ErrInvalidProcedure
		}
		fp.ApproachIndex = index
		fp.ApproachTransition = -1
		s.rebuildApproach(fp)
		return nil
	})
}

func (s *Sim) SetApproachTransition(buffer, index int) *Call {
	return s.command("Sim.SetApproachTransition", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		fp.ApproachTransition = index
		s.rebuildApproach(fp)
		return nil
	})
}

func (s *Sim) AddWaypoint(buffer, index int, wp aviation.Waypoint) *Call {
	return s.command("Sim.AddWaypoint", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		if index < 0 || index > len(fp.Waypoints) {
			return ErrInvalidWaypointIndex
		}
		if wp.Key != "" {
			if fix, ok := s.db.LookupKey(wp.Key); ok {
				wp.Location = fix.Location
			} else {
				return aviation.ErrNoMatchingFix
			}
		}
		fp.Waypoints = append(fp.Waypoints, aviation.Waypoint{})
		copy(fp.Waypoints[index+1:], fp.Waypoints[index:])
		fp.Waypoints[index] = wp
		return nil
	})
}

func (s *Sim) RemoveWaypoint(buffer, index int) *Call {
	return s.command("Sim.RemoveWaypoint", func() error {
		fp, err := s.plan(buffer)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(fp.Waypoints) {
			return ErrInvalidWaypointIndex
		}
		wp := fp.Waypoints[index]
		fp.Waypoints = append(fp.Waypoints[:index], fp.Waypoints[index+1:]...)
		switch {
		case wp.OnDeparture():
			fp.DepartureLegCount--
		case wp.OnArrival():
			fp.ArrivalLegCount--
		}
		return nil
	})
}

func (s *Sim) ActivateApproach() *Call {
	return s.command("Sim.ActivateApproach", func() error {
		if len(s.approach.Waypoints) == 0 {
			return ErrNoApproachSelected
		}
		s.approach.Activated = true
		return nil
	})
}

func (s *Sim) DeactivateApproach() *Call {
	return s.command("Sim.DeactivateApproach", func() error {
		s.approach.Activated = false
		return nil
	})
}

func (s *Sim) AutoActivateApproach() *Call {
	return s.command("Sim.AutoActivateApproach", func() error {
		if len(s.approach.Waypoints) == 0 {
			return ErrNoApproachSelected
		}
		s.approach.Activated = true
		return nil
	})
}

func (s *Sim) ActivateDirectTo(ident string, position math.Point2LL) *Call {
	return s.command("Sim.ActivateDirectTo", func() error {
		fp := &s.plans[0]
		if fp.Waypoints.Find(strings.ToUpper(ident)) == -1 {
			return aviation.ErrNoMatchingFix
		}
		fp.DirectToActive = true
		fp.DirectToIdent = strings.ToUpper(ident)
		fp.DirectToActivation = position
		s.nextWaypointIdent = fp.DirectToIdent
		return nil
	})
}

func (s *Sim) CancelDirectTo() *Call {
	return s.command("Sim.CancelDirectTo", func() error {
		fp := &s.plans[0]
		fp.DirectToActive = false
		fp.DirectToIdent = ""
		fp.DirectToActivation = math.Point2LL{}
		return nil
	})
}

///////////////////////////////////////////////////////////////////////////
// Host-side hooks

// SetNextWaypointIdent is the host-side sequencing input: the simulation
// (or a test) reports which waypoint the aircraft is currently flying
// toward.
func (s *Sim) SetNextWaypointIdent(ident string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWaypointIdent = ident
	s.version++
}

// BumpVersion models a store-side change the engine didn't initiate.
func (s *Sim) BumpVersion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
}

///////////////////////////////////////////////////////////////////////////
// Plan assembly

func airportWaypoint(ap *aviation.Airport) aviation.Waypoint {
	return aviation.Waypoint{
		Fix:      ap.ICAO,
		Key:      aviation.FixKey("APT/" + ap.ICAO),
		Location: ap.Location,
		Altitude: float32(ap.Elevation),
		Speed:    aviation.SpeedRestrictionNone,
		Leg:      aviation.LegTypeIF,
	}
}

func isAirportWaypoint(wp aviation.Waypoint) bool {
	return strings.HasPrefix(string(wp.Key), "APT/")
}

func (s *Sim) origin(fp *FlightPlanData) (*aviation.Airport, error) {
	if fp.OriginICAO == "" {
		return nil, ErrNoOriginAirport
	}
	return s.db.Airport(fp.OriginICAO)
}

func (s *Sim) destination(fp *FlightPlanData) (*aviation.Airport, error) {
	if fp.DestinationICAO == "" {
		return nil, ErrNoDestinationAirport
	}
	return s.db.Airport(fp.DestinationICAO)
}

// resolveRun fleshes out procedure waypoint stubs against the database
// where possible; unresolvable idents keep a zero location.
func (s *Sim) resolveRun(run aviation.WaypointArray, flag aviation.WaypointFlags) aviation.WaypointArray {
	out := make(aviation.WaypointArray, len(run))
	for i, wp := range run {
		if wp.Location.IsZero() && wp.Key == "" {
			if fix, err := s.db.Locate(wp.Fix); err == nil {
				wp.Key = fix.Key
				wp.Location = fix.Location
			}
		}
		if wp.Speed == 0 {
			wp.Speed = aviation.SpeedRestrictionNone
		}
		wp.Flags |= flag
		if wp.Leg.ManualTermination() {
			wp.SetDiscontinuityAfter(true)
		}
		out[i] = wp
	}
	return out
}

// rebuildDeparture replaces the departure segment (the waypoints
// immediately after the origin) with the currently selected procedure's
// run.
func (s *Sim) rebuildDeparture(fp *FlightPlanData) {
	if fp.OriginICAO == "" {
		return
	}
	ap, err := s.origin(fp)
	if err != nil {
		return
	}

	var run aviation.WaypointArray
	if fp.DepartureProcedure >= 0 && fp.DepartureProcedure < len(ap.Departures) {
		proc := &ap.Departures[fp.DepartureProcedure]
		run = s.resolveRun(proc.DepartureWaypoints(fp.DepartureRunwayTransition, fp.DepartureEnrouteTransition),
			aviation.WaypointFlagOnDeparture)
	}

	// Splice: origin is at index 0, old departure segment right after it.
	head := 1
	if len(fp.Waypoints) == 0 || !isAirportWaypoint(fp.Waypoints[0]) {
		head = 0
	}
	rest := fp.Waypoints[min(head+fp.DepartureLegCount, len(fp.Waypoints)):]
	fp.Waypoints = append(append(append(aviation.WaypointArray{}, fp.Waypoints[:head]...), run...), rest...)
	fp.DepartureLegCount = len(run)
}

// rebuildArrival replaces the arrival segment (the waypoints immediately
// before the destination).
func (s *Sim) rebuildArrival(fp *FlightPlanData) {
	if fp.DestinationICAO == "" {
		return
	}
	ap, err := s.destination(fp)
	if err != nil {
		return
	}

	var run aviation.WaypointArray
	if fp.ArrivalProcedure >= 0 && fp.ArrivalProcedure < len(ap.Arrivals) {
		proc := &ap.Arrivals[fp.ArrivalProcedure]
		run = s.resolveRun(proc.ArrivalWaypoints(fp.ArrivalEnrouteTransition, fp.ArrivalRunwayTransition),
			aviation.WaypointFlagOnArrival)
	}

	tail := len(fp.Waypoints)
	if tail > 0 && isAirportWaypoint(fp.Waypoints[tail-1]) && tail > 1 {
		tail--
	}
	cut := max(tail-fp.ArrivalLegCount, 0)
	fp.Waypoints = append(append(append(aviation.WaypointArray{}, fp.Waypoints[:cut]...), run...), fp.Waypoints[tail:]...)
	fp.ArrivalLegCount = len(run)
}

// rebuildApproach regenerates the approach projection from the selected
// approach; deactivates it if the selection went away.
func (s *Sim) rebuildApproach(fp *FlightPlanData) {
	s.approach.Waypoints = nil
	ap, err := s.destination(fp)
	if err != nil || fp.ApproachIndex < 0 || fp.ApproachIndex >= len(ap.Approaches) {
		s.approach.Activated = false
		fp.ApproachLegCount = 0
		return
	}
	appr := &ap.Approaches[fp.ApproachIndex]
	s.approach.Waypoints = s.resolveRun(appr.ApproachWaypoints(fp.ApproachTransition),
		aviation.WaypointFlagOnApproach)
	fp.ApproachLegCount = len(s.approach.Waypoints)
}
