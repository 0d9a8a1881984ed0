// math/math.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math provides the geometric foundations for route predictions:
// scalar helpers and lat-long great-circle math over float32, which is
// plenty of precision for flight-plan distances and keeps the waypoint
// structs compact.
package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(x, a, b float32) float32 {
	return (1-x)*a + x*b
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sign(v float32) float32 {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Floor(v float32) float32 {
	return float32(gomath.Floor(float64(v)))
}

func Ceil(v float32) float32 {
	return float32(gomath.Ceil(float64(v)))
}

func Mod(a, b float32) float32 {
	return float32(gomath.Mod(float64(a), float64(b)))
}

func Sqrt(a float32) float32 {
	return float32(gomath.Sqrt(float64(a)))
}

func Sin(a float32) float32 {
	return float32(gomath.Sin(float64(a)))
}

func Cos(a float32) float32 {
	return float32(gomath.Cos(float64(a)))
}

func Atan2(y, x float32) float32 {
	return float32(gomath.Atan2(float64(y), float64(x)))
}

func Radians(d float32) float32 {
	return d / 180 * gomath.Pi
}

func Degrees(r float32) float32 {
	return r * 180 / gomath.Pi
}

// RoundUp100 returns v rounded up to the next multiple of 100; altitudes
// derived from interpolation are reported this way.
func RoundUp100(v float32) float32 {
	return 100 * Ceil(v/100)
}
