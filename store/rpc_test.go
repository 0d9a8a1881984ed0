// store/rpc_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"net"
	"testing"
	"time"

	"github.com/avsim/fms/aviation"
)

// startRPC serves a Sim on a loopback listener and returns a connected
// client.
func startRPC(t *testing.T) (*RPC, *Sim) {
	t.Helper()

	sim := NewSim(testDatabase(t), nil)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	go Serve(l, sim, nil)

	r, err := Dial(l.Addr().String(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, sim
}

func awaitCall(t *testing.T, c *Call) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !c.Finished() {
		if time.Now().After(deadline) {
			t.Fatalf("%s: no response", c.Method)
		}
		time.Sleep(time.Millisecond)
	}
	if c.Error != nil {
		t.Fatalf("%s: %v", c.Method, c.Error)
	}
}

func TestRPCRoundTrip(t *testing.T) {
	r, _ := startRPC(t)

	awaitCall(t, r.SetOrigin(0, "KAAA"))
	awaitCall(t, r.SetDestination(0, "KBBB"))
	awaitCall(t, r.AddWaypoint(0, 1, aviation.Waypoint{Fix: "MIDDL", Key: "FIX/MIDDL"}))

	var data FlightPlanData
	awaitCall(t, r.GetFlightPlan(0, &data))
	if len(data.Waypoints) != 3 || data.Waypoints[1].Fix != "MIDDL" {
		t.Fatalf("waypoints over RPC = %+v", data.Waypoints)
	}
	if data.Waypoints[1].Location.IsZero() {
		t.Error("waypoint location lost in transit")
	}

	var v int64
	awaitCall(t, r.GetVersion(&v))
	if v != 3 {
		t.Errorf("version %d after three commands, want 3", v)
	}
}

func TestRPCErrorsPropagate(t *testing.T) {
	r, _ := startRPC(t)

	c := r.SetOrigin(0, "KZZZ")
	deadline := time.Now().Add(5 * time.Second)
	for !c.Finished() {
		if time.Now().After(deadline) {
			t.Fatal("no response")
		}
		time.Sleep(time.Millisecond)
	}
	if c.Error == nil {
		t.Fatal("unknown airport error not propagated")
	}
	// net/rpc flattens errors to strings; match on the message.
	if c.Error.Error() != aviation.ErrNoMatchingAirport.Error() {
		t.Errorf("error %q, want %q", c.Error, aviation.ErrNoMatchingAirport)
	}
}

func TestRPCBufferSwitch(t *testing.T) {
	r, sim := startRPC(t)
	sim.SwitchVisibleAfter = 2

	awaitCall(t, r.SwitchBuffer(1))

	var idx int
	awaitCall(t, r.GetCurrentBuffer(&idx))
	if idx != 0 {
		t.Fatalf("switch visible after one poll, buffer %d", idx)
	}
	awaitCall(t, r.GetCurrentBuffer(&idx))
	if idx != 1 {
		t.Fatalf("switch not visible after threshold, buffer %d", idx)
	}
}
