// aviation/restrictions.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"

	"github.com/avsim/fms/math"
)

///////////////////////////////////////////////////////////////////////////
// AltitudeRestriction

type RestrictionKind int8

const (
	RestrictionNone RestrictionKind = iota
	RestrictionAtOrAbove
	RestrictionAtOrBelow
	RestrictionAt
	RestrictionBetween
)

func (r RestrictionKind) String() string {
	return [...]string{"none", "at or above", "at or below", "at", "between"}[r]
}

// AltitudeRestriction is a waypoint's altitude constraint: a kind tag
// plus one or two altitudes. Range[0] is the lower bound and Range[1] the
// upper; which of the two is meaningful depends on Kind.
type AltitudeRestriction struct {
	Kind  RestrictionKind
	Range [2]float32
}

func AtOrAbove(alt float32) AltitudeRestriction {
	return AltitudeRestriction{Kind: RestrictionAtOrAbove, Range: [2]float32{alt, 0}}
}

func AtOrBelow(alt float32) AltitudeRestriction {
	return AltitudeRestriction{Kind: RestrictionAtOrBelow, Range: [2]float32{0, alt}}
}

func At(alt float32) AltitudeRestriction {
	return AltitudeRestriction{Kind: RestrictionAt, Range: [2]float32{alt, alt}}
}

func Between(low, high float32) AltitudeRestriction {
	return AltitudeRestriction{Kind: RestrictionBetween, Range: [2]float32{low, high}}
}

// TargetAltitude returns the altitude closest to alt that satisfies the
// restriction.
func (a AltitudeRestriction) TargetAltitude(alt float32) float32 {
	switch a.Kind {
	case RestrictionAtOrAbove:
		return max(alt, a.Range[0])
	case RestrictionAtOrBelow:
		return min(alt, a.Range[1])
	case RestrictionAt:
		return a.Range[0]
	case RestrictionBetween:
		return math.Clamp(alt, a.Range[0], a.Range[1])
	default:
		return alt
	}
}

// Satisfied reports whether the given altitude meets the restriction.
func (a AltitudeRestriction) Satisfied(alt float32) bool {
	switch a.Kind {
	case RestrictionAtOrAbove:
		return alt >= a.Range[0]
	case RestrictionAtOrBelow:
		return alt <= a.Range[1]
	case RestrictionAt:
		return alt == a.Range[0]
	case RestrictionBetween:
		return alt >= a.Range[0] && alt <= a.Range[1]
	default:
		return true
	}
}

// Encoded returns the restriction in a compact encoded form, e.g.
// "5000+" for "at or above 5000".
func (a AltitudeRestriction) Encoded() string {
	switch a.Kind {
	case RestrictionAtOrAbove:
		return fmt.Sprintf("%.0f+", a.Range[0])
	case RestrictionAtOrBelow:
		return fmt.Sprintf("%.0f-", a.Range[1])
	case RestrictionAt:
		return fmt.Sprintf("%.0f", a.Range[0])
	case RestrictionBetween:
		return fmt.Sprintf("%.0f-%.0f", a.Range[0], a.Range[1])
	default:
		return ""
	}
}
