// aviation/aviation.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package aviation defines the data model shared by the flight-plan
// engine: waypoints, altitude and speed restrictions, ARINC 424-style leg
// types, departure/arrival/approach procedures, and the navigation
// database they are looked up in.
package aviation

import (
	"strings"

	"github.com/avsim/fms/math"
)

// FixKey is the stable navigation-database key for a fix. Fix identifiers
// are short and collide (the same five letters may name multiple fixes in
// different regions), so anything that needs a durable reference to a
// specific fix holds its FixKey, never its ident.
type FixKey string

type TurnDirection int8

const (
	TurnClosest TurnDirection = iota // unconstrained
	TurnLeft
	TurnRight
)

func (t TurnDirection) String() string {
	return [...]string{"closest", "left", "right"}[t]
}

// SpeedRestrictionNone marks a waypoint with no speed restriction; it is
// distinct from zero so that an explicit (if nonsensical) zero-knot
// restriction can't be confused with "none".
const SpeedRestrictionNone = -1

///////////////////////////////////////////////////////////////////////////
// LegType

// LegType is the ARINC 424 path/terminator for the leg that ends at a
// waypoint.
type LegType uint8

const (
	LegTypeUnknown LegType = iota
	LegTypeIF              // initial fix
	LegTypeTF              // track to fix
	LegTypeCF              // course to fix
	LegTypeDF              // direct to fix
	LegTypeFA              // fix to altitude
	LegTypeFM              // fix to manual termination
	LegTypeCA              // course to altitude
	LegTypeCI              // course to intercept
	LegTypeCD              // course to DME distance
	LegTypeVA              // heading to altitude
	LegTypeVI              // heading to intercept
	LegTypeVM              // heading to manual termination
	LegTypeRF              // constant radius arc
	LegTypeAF              // DME arc to fix
	LegTypeHA              // hold to altitude
	LegTypeHF              // hold, single circuit
	LegTypeHM              // hold to manual termination
	LegTypePI              // procedure turn
)

var legTypeNames = [...]string{"", "IF", "TF", "CF", "DF", "FA", "FM", "CA", "CI",
	"CD", "VA", "VI", "VM", "RF", "AF", "HA", "HF", "HM", "PI"}

func (l LegType) String() string {
	if int(l) < len(legTypeNames) {
		return legTypeNames[l]
	}
	return "???"
}

func ParseLegType(s string) (LegType, bool) {
	for i, n := range legTypeNames {
		if i > 0 && n == strings.ToUpper(s) {
			return LegType(i), true
		}
	}
	return LegTypeUnknown, false
}

// ManualTermination reports whether the leg ends at a manual termination
// rather than a fix; a route discontinuity follows such legs.
func (l LegType) ManualTermination() bool {
	return l == LegTypeFM || l == LegTypeVM || l == LegTypeHM
}

///////////////////////////////////////////////////////////////////////////
// Runway

type Runway struct {
	Id        string // e.g. "22L"
	Heading   float32
	Threshold math.Point2LL
	Elevation int
}

// sameDesignation reports whether a transition name refers to the given
// runway: "RW22B" covers both 22L and 22R, "RW22L" just the one.
func runwayMatchesTransition(rwy string, transition string) bool {
	if rwy == "" || transition == "" {
		return false
	}
	if strings.Contains(transition, rwy) {
		return true
	}
	// "B" suffix in procedure data means "both"/"all" for parallel runways.
	number := strings.TrimRight(rwy, "LRC")
	return strings.Contains(transition, number+"B")
}
