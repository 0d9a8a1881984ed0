// store/rpc.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"net"
	"net/rpc"

	"github.com/avsim/fms/aviation"
	"github.com/avsim/fms/log"
	"github.com/avsim/fms/math"
	"github.com/avsim/fms/util"
)

///////////////////////////////////////////////////////////////////////////
// Client side

// RPC is a Store backed by a remote store over net/rpc with the msgpack
// wire codec. Calls are issued with rpc.Go and never block.
type RPC struct {
	client *rpc.Client
}

var _ Store = (*RPC)(nil)
var _ Store = (*Sim)(nil)

// Dial connects to a remote store at the given address.
func Dial(address string, lg *log.Logger) (*RPC, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return MakeRPCClient(conn, lg), nil
}

// MakeRPCClient wraps an established connection; handy for tests running
// the two ends over a net.Pipe.
func MakeRPCClient(conn net.Conn, lg *log.Logger) *RPC {
	codec := util.MakeLoggingClientCodec(conn.RemoteAddr().String(),
		util.MakeMessagepackClientCodec(conn), lg)
	return &RPC{client: rpc.NewClientWithCodec(codec)}
}

func (r *RPC) issue(method string, args, reply any) *Call {
	if reply == nil {
		reply = new(struct{})
	}
	c := newCall(method, reply)
	c.rpcCall = r.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	return c
}

type BufferArgs struct {
	Buffer int
}

type BufferIndexArgs struct {
	Buffer int
	Index  int
}

type BufferICAOArgs struct {
	Buffer int
	ICAO   string
}

type AddWaypointArgs struct {
	Buffer   int
	Index    int
	Waypoint aviation.Waypoint
}

type CopyArgs struct {
	From, To int
}

type DirectToArgs struct {
	Ident    string
	Position math.Point2LL
}

func (r *RPC) GetFlightPlan(buffer int, reply *FlightPlanData) *Call {
	return r.issue("Dispatcher.GetFlightPlan", &BufferArgs{Buffer: buffer}, reply)
}

func (r *RPC) GetApproach(reply *ApproachData) *Call {
	return r.issue("Dispatcher.GetApproach", &struct{}{}, reply)
}

func (r *RPC) GetNextWaypointIdent(reply *string) *Call {
	return r.issue("Dispatcher.GetNextWaypointIdent", &struct{}{}, reply)
}

func (r *RPC) GetCurrentBuffer(reply *int) *Call {
	return r.issue("Dispatcher.GetCurrentBuffer", &struct{}{}, reply)
}

func (r *RPC) GetVersion(reply *int64) *Call {
	return r.issue("Dispatcher.GetVersion", &struct{}{}, reply)
}

func (r *RPC) SwitchBuffer(index int) *Call {
	return r.issue("Dispatcher.SwitchBuffer", &BufferArgs{Buffer: index}, nil)
}

func (r *RPC) SetOrigin(buffer int, icao string) *Call {
	return r.issue("Dispatcher.SetOrigin", &BufferICAOArgs{Buffer: buffer, ICAO: icao}, nil)
}

func (r *RPC) SetDestination(buffer int, icao string) *Call {
	return r.issue("Dispatcher.SetDestination", &BufferICAOArgs{Buffer: buffer, ICAO: icao}, nil)
}

func (r *RPC) SetOriginRunway(buffer, index int) *Call {
	return r.issue("Dispatcher.SetOriginRunway", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetDestinationRunway(buffer, index int) *Call {
	return r.issue("Dispatcher.SetDestinationRunway", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetCruiseAltitude(buffer, feet int) *Call {
	return r.issue("Dispatcher.SetCruiseAltitude", &BufferIndexArgs{Buffer: buffer, Index: feet}, nil)
}

func (r *RPC) SetDepartureProcedure(buffer, index int) *Call {
	return r.issue("Dispatcher.SetDepartureProcedure", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetDepartureRunwayTransition(buffer, index int) *Call {
	return r.issue("Dispatcher.SetDepartureRunwayTransition", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetDepartureEnrouteTransition(buffer, index int) *Call {
	return r.issue("Dispatcher.SetDepartureEnrouteTransition", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetArrivalProcedure(buffer, index int) *Call {
	return r.issue("Dispatcher.SetArrivalProcedure", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetArrivalRunwayTransition(buffer, index int) *Call {
	return r.issue("Dispatcher.SetArrivalRunwayTransition", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetArrivalEnrouteTransition(buffer, index int) *Call {
	return r.issue("Dispatcher.SetArrivalEnrouteTransition", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetApproach(buffer, index int) *Call {
	return r.issue("Dispatcher.SetApproach", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) SetApproachTransition(buffer, index int) *Call {
	return r.issue("Dispatcher.SetApproachTransition", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) AddWaypoint(buffer, index int, wp aviation.Waypoint) *Call {
	return r.issue("Dispatcher.AddWaypoint", &AddWaypointArgs{Buffer: buffer, Index: index, Waypoint: wp}, nil)
}

func (r *RPC) RemoveWaypoint(buffer, index int) *Call {
	return r.issue("Dispatcher.RemoveWaypoint", &BufferIndexArgs{Buffer: buffer, Index: index}, nil)
}

func (r *RPC) CopyFlightPlan(from, to int) *Call {
	return r.issue("Dispatcher.CopyFlightPlan", &CopyArgs{From: from, To: to}, nil)
}

func (r *RPC) ActivateApproach() *Call {
	return r.issue("Dispatcher.ActivateApproach", &struct{}{}, nil)
}

func (r *RPC) DeactivateApproach() *Call {
	return r.issue("Dispatcher.DeactivateApproach", &struct{}{}, nil)
}

func (r *RPC) AutoActivateApproach() *Call {
	return r.issue("Dispatcher.AutoActivateApproach", &struct{}{}, nil)
}

func (r *RPC) ActivateDirectTo(ident string, position math.Point2LL) *Call {
	return r.issue("Dispatcher.ActivateDirectTo", &DirectToArgs{Ident: ident, Position: position}, nil)
}

func (r *RPC) CancelDirectTo() *Call {
	return r.issue("Dispatcher.CancelDirectTo", &struct{}{}, nil)
}

func (r *RPC) Close() error {
	return r.client.Close()
}

///////////////////////////////////////////////////////////////////////////
// Server side

// Dispatcher exposes a Sim store over net/rpc. Every method resolves the
// Sim's (already completed) Call and returns its error, so remote callers
// see exactly the semantics in-process callers do.
type Dispatcher struct {
	sim *Sim
}

func await(c *Call) error {
	<-c.Done
	return c.Error
}

func (d *Dispatcher) GetFlightPlan(args *BufferArgs, reply *FlightPlanData) error {
	return await(d.sim.GetFlightPlan(args.Buffer, reply))
}

func (d *Dispatcher) GetApproach(args *struct{}, reply *ApproachData) error {
	return await(d.sim.GetApproach(reply))
}

func (d *Dispatcher) GetNextWaypointIdent(args *struct{}, reply *string) error {
	return await(d.sim.GetNextWaypointIdent(reply))
}

func (d *Dispatcher) GetCurrentBuffer(args *struct{}, reply *int) error {
	return await(d.sim.GetCurrentBuffer(reply))
}

func (d *Dispatcher) GetVersion(args *struct{}, reply *int64) error {
	return await(d.sim.GetVersion(reply))
}

func (d *Dispatcher) SwitchBuffer(args *BufferArgs, reply *struct{}) error {
	return await(d.sim.SwitchBuffer(args.Buffer))
}

func (d *Dispatcher) SetOrigin(args *BufferICAOArgs, reply *struct{}) error {
	return await(d.sim.SetOrigin(args.Buffer, args.ICAO))
}

func (d *Dispatcher) SetDestination(args *BufferICAOArgs, reply *struct{}) error {
	return await(d.sim.SetDestination(args.Buffer, args.ICAO))
}

func (d *Dispatcher) SetOriginRunway(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetOriginRunway(args.Buffer, args.Index))
}

func (d *Dispatcher) SetDestinationRunway(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetDestinationRunway(args.Buffer, args.Index))
}

func (d *Dispatcher) SetCruiseAltitude(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetCruiseAltitude(args.Buffer, args.Index))
}

func (d *Dispatcher) SetDepartureProcedure(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetDepartureProcedure(args.Buffer, args.Index))
}

func (d *Dispatcher) SetDepartureRunwayTransition(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetDepartureRunwayTransition(args.Buffer, args.Index))
}

func (d *Dispatcher) SetDepartureEnrouteTransition(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetDepartureEnrouteTransition(args.Buffer, args.Index))
}

func (d *Dispatcher) SetArrivalProcedure(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetArrivalProcedure(args.Buffer, args.Index))
}

func (d *Dispatcher) SetArrivalRunwayTransition(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetArrivalRunwayTransition(args.Buffer, args.Index))
}

func (d *Dispatcher) SetArrivalEnrouteTransition(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetArrivalEnrouteTransition(args.Buffer, args.Index))
}

func (d *Dispatcher) SetApproach(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetApproach(args.Buffer, args.Index))
}

func (d *Dispatcher) SetApproachTransition(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.SetApproachTransition(args.Buffer, args.Index))
}

func (d *Dispatcher) AddWaypoint(args *AddWaypointArgs, reply *struct{}) error {
	return await(d.sim.AddWaypoint(args.Buffer, args.Index, args.Waypoint))
}

func (d *Dispatcher) RemoveWaypoint(args *BufferIndexArgs, reply *struct{}) error {
	return await(d.sim.RemoveWaypoint(args.Buffer, args.Index))
}

func (d *Dispatcher) CopyFlightPlan(args *CopyArgs, reply *struct{}) error {
	return await(d.sim.CopyFlightPlan(args.From, args.To))
}

func (d *Dispatcher) ActivateApproach(args *struct{}, reply *struct{}) error {
	return await(d.sim.ActivateApproach())
}

func (d *Dispatcher) DeactivateApproach(args *struct{}, reply *struct{}) error {
	return await(d.sim.DeactivateApproach())
}

func (d *Dispatcher) AutoActivateApproach(args *struct{}, reply *struct{}) error {
	return await(d.sim.AutoActivateApproach())
}

func (d *Dispatcher) ActivateDirectTo(args *DirectToArgs, reply *struct{}) error {
	return await(d.sim.ActivateDirectTo(args.Ident, args.Position))
}

func (d *Dispatcher) CancelDirectTo(args *struct{}, reply *struct{}) error {
	return await(d.sim.CancelDirectTo())
}

// Serve accepts connections on the listener and serves the store to each
// over the msgpack codec; it blocks until the listener is closed.
func Serve(l net.Listener, sim *Sim, lg *log.Logger) error {
	server := rpc.NewServer()
	if err := server.RegisterName("Dispatcher", &Dispatcher{sim: sim}); err != nil {
		return err
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		lg.Infof("%s: store connection", conn.RemoteAddr())
		codec := util.MakeLoggingServerCodec(conn.RemoteAddr().String(),
			util.MakeMessagepackServerCodec(conn, lg), lg)
		go server.ServeCodec(codec)
	}
}
