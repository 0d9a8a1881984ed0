// aviation/route.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/avsim/fms/math"
)

///////////////////////////////////////////////////////////////////////////
// Waypoint

type WaypointFlags uint16

const (
	WaypointFlagOverfly WaypointFlags = 1 << iota
	WaypointFlagOnDeparture
	WaypointFlagOnArrival
	WaypointFlagOnApproach
	WaypointFlagAirwayIn  // waypoint is inside an inbound airway segment
	WaypointFlagAirwayOut // waypoint starts an outbound airway segment
	WaypointFlagDiscontinuityAfter
	WaypointFlagTurnLeft
	WaypointFlagTurnRight
	WaypointFlagLocalAltRestriction // restriction was derived locally, not from the store
)

// Waypoint is a single point in a flight-plan sequence. Identity is
// structural: Key plus position within the containing sequence. A
// waypoint has no stable handle; refresh replaces them wholesale.
type Waypoint struct {
	Fix      string        // identifier, e.g. "CAMRN"
	Key      FixKey        // database key; empty for synthetic points
	Location math.Point2LL `json:"location,omitempty"`
	Altitude float32       // feet MSL; 0 = unknown

	AltRestriction AltitudeRestriction
	Speed          int16 // knots; SpeedRestrictionNone = no restriction
	Leg            LegType
	Flags          WaypointFlags

	// Distance from the start of the containing sequence, following the
	// legs; maintained on every refresh.
	CumulativeDistance float32

	// Airway membership, empty if none.
	AirwayIn  string
	AirwayOut string

	// Live predictions, valid only from the active leg onward.
	DistanceTo    float32 // nm from current position
	ETEMinutes    float32
	ETAUTCSeconds float32
}

// Flag readers (value receiver)
func (wp Waypoint) Overfly() bool            { return wp.Flags&WaypointFlagOverfly != 0 }
func (wp Waypoint) OnDeparture() bool        { return wp.Flags&WaypointFlagOnDeparture != 0 }
func (wp Waypoint) OnArrival() bool          { return wp.Flags&WaypointFlagOnArrival != 0 }
func (wp Waypoint) OnApproach() bool         { return wp.Flags&WaypointFlagOnApproach != 0 }
func (wp Waypoint) InAirway() bool           { return wp.Flags&WaypointFlagAirwayIn != 0 }
func (wp Waypoint) StartsAirway() bool       { return wp.Flags&WaypointFlagAirwayOut != 0 }
func (wp Waypoint) DiscontinuityAfter() bool { return wp.Flags&WaypointFlagDiscontinuityAfter != 0 }
func (wp Waypoint) LocalAltRestriction() bool {
	return wp.Flags&WaypointFlagLocalAltRestriction != 0
}

func (wp Waypoint) Turn() TurnDirection {
	if wp.Flags&WaypointFlagTurnLeft != 0 {
		return TurnLeft
	}
	if wp.Flags&WaypointFlagTurnRight != 0 {
		return TurnRight
	}
	return TurnClosest
}

// Flag setters (pointer receiver)
func (wp *Waypoint) setFlag(f WaypointFlags, v bool) {
	if v {
		wp.Flags |= f
	} else {
		wp.Flags &^= f
	}
}

func (wp *Waypoint) SetOverfly(v bool)            { wp.setFlag(WaypointFlagOverfly, v) }
func (wp *Waypoint) SetOnDeparture(v bool)        { wp.setFlag(WaypointFlagOnDeparture, v) }
func (wp *Waypoint) SetOnArrival(v bool)          { wp.setFlag(WaypointFlagOnArrival, v) }
func (wp *Waypoint) SetOnApproach(v bool)         { wp.setFlag(WaypointFlagOnApproach, v) }
func (wp *Waypoint) SetDiscontinuityAfter(v bool) { wp.setFlag(WaypointFlagDiscontinuityAfter, v) }
func (wp *Waypoint) SetLocalAltRestriction(v bool) {
	wp.setFlag(WaypointFlagLocalAltRestriction, v)
}

func (wp *Waypoint) SetTurn(t TurnDirection) {
	wp.Flags &^= WaypointFlagTurnLeft | WaypointFlagTurnRight
	switch t {
	case TurnLeft:
		wp.Flags |= WaypointFlagTurnLeft
	case TurnRight:
		wp.Flags |= WaypointFlagTurnRight
	}
}

// CoreEqual reports whether two waypoints are the same as far as the
// authoritative store is concerned: everything except the live prediction
// fields and locally derived state. The refresh path uses this to reuse
// the cached waypoint, which preserves locally memorized
// altitude-restriction provenance across refreshes.
func (wp Waypoint) CoreEqual(o Waypoint) bool {
	const localFlags = WaypointFlagLocalAltRestriction
	if wp.Flags&^localFlags != o.Flags&^localFlags {
		return false
	}
	return wp.Fix == o.Fix && wp.Key == o.Key && wp.Location == o.Location &&
		wp.Altitude == o.Altitude && wp.AltRestriction == o.AltRestriction &&
		wp.Speed == o.Speed && wp.Leg == o.Leg &&
		wp.AirwayIn == o.AirwayIn && wp.AirwayOut == o.AirwayOut
}

func (wp Waypoint) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("fix", wp.Fix)}
	if wp.Key != "" {
		attrs = append(attrs, slog.String("key", string(wp.Key)))
	}
	if wp.Leg != LegTypeUnknown {
		attrs = append(attrs, slog.String("leg", wp.Leg.String()))
	}
	if wp.AltRestriction.Kind != RestrictionNone {
		attrs = append(attrs, slog.String("altitude_restriction", wp.AltRestriction.Encoded()))
	}
	if wp.Speed != SpeedRestrictionNone && wp.Speed != 0 {
		attrs = append(attrs, slog.Int("speed", int(wp.Speed)))
	}
	if wp.Overfly() {
		attrs = append(attrs, slog.Bool("overfly", true))
	}
	if t := wp.Turn(); t != TurnClosest {
		attrs = append(attrs, slog.String("turn", t.String()))
	}
	if wp.DiscontinuityAfter() {
		attrs = append(attrs, slog.Bool("discontinuity_after", true))
	}
	if aw := wp.AirwayIn; aw != "" {
		attrs = append(attrs, slog.String("airway_in", aw))
	}
	if aw := wp.AirwayOut; aw != "" {
		attrs = append(attrs, slog.String("airway_out", aw))
	}
	return slog.GroupValue(attrs...)
}

///////////////////////////////////////////////////////////////////////////
// WaypointArray

type WaypointArray []Waypoint

// Encode returns a compact single-line summary of the sequence, mostly
// for logs and debugging.
func (wa WaypointArray) Encode() string {
	var entries []string
	for _, w := range wa {
		s := w.Fix
		if w.AltRestriction.Kind != RestrictionNone {
			s += "/a" + w.AltRestriction.Encoded()
		}
		if w.Speed != SpeedRestrictionNone && w.Speed != 0 {
			s += fmt.Sprintf("/s%d", w.Speed)
		}
		if w.Overfly() {
			s += "/overfly"
		}
		if w.DiscontinuityAfter() {
			s += "/disc"
		}
		entries = append(entries, s)
	}
	return strings.Join(entries, " ")
}

// UpdateCumulativeDistances recomputes each waypoint's distance from the
// start of the sequence along its legs, starting at initial (nonzero when
// the sequence continues another one, as the approach projection does).
func (wa WaypointArray) UpdateCumulativeDistances(initial float32) {
	d := initial
	for i := range wa {
		if i > 0 {
			d += math.NMDistance2LL(wa[i-1].Location, wa[i].Location)
		}
		wa[i].CumulativeDistance = d
	}
}

// Find returns the index of the first waypoint with the given ident, or
// -1 if none matches.
func (wa WaypointArray) Find(fix string) int {
	for i, wp := range wa {
		if wp.Fix == fix {
			return i
		}
	}
	return -1
}

// FindKey returns the index of the first waypoint with the given database
// key, or -1.
func (wa WaypointArray) FindKey(key FixKey) int {
	for i, wp := range wa {
		if wp.Key == key {
			return i
		}
	}
	return -1
}
