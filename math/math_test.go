// math/math_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(5, 1, 10) != 5 {
		t.Errorf("Clamp(5, 1, 10) != 5")
	}
	if Clamp(-1, 1, 10) != 1 {
		t.Errorf("Clamp(-1, 1, 10) != 1")
	}
	if Clamp(15, 1, 10) != 10 {
		t.Errorf("Clamp(15, 1, 10) != 10")
	}
}

func TestRoundUp100(t *testing.T) {
	for _, c := range []struct {
		v, want float32
	}{
		{0, 0},
		{1, 100},
		{99, 100},
		{100, 100},
		{101, 200},
		{2350, 2400},
		{11900.5, 12000},
	} {
		if got := RoundUp100(c.v); got != c.want {
			t.Errorf("RoundUp100(%g) = %g, expected %g", c.v, got, c.want)
		}
	}
}

func TestNMDistance2LL(t *testing.T) {
	// JFK VOR to LGA VOR is about 10.9nm
	jfk := Point2LL{-73.771385, 40.632888}
	lga := Point2LL{-73.867012, 40.783817}

	d := NMDistance2LL(jfk, lga)
	if Abs(d-10.9) > 0.25 {
		t.Errorf("JFK-LGA: got %g nm, expected ~10.9", d)
	}
	if NMDistance2LL(jfk, jfk) != 0 {
		t.Errorf("distance from a point to itself is nonzero")
	}
}

func TestLerp2LL(t *testing.T) {
	a := Point2LL{-73, 40}
	b := Point2LL{-74, 41}
	nmPerLongitude := NMPerLongitude(a)

	if mid := Lerp2LL(0.5, a, b, nmPerLongitude); Abs(mid[0]-(-73.5)) > 1e-4 || Abs(mid[1]-40.5) > 1e-4 {
		t.Errorf("midpoint: got %v", mid)
	}
	if p := Lerp2LL(0, a, b, nmPerLongitude); p != a {
		t.Errorf("Lerp2LL(0) = %v, expected %v", p, a)
	}
	if p := Lerp2LL(1, a, b, nmPerLongitude); Abs(p[0]-b[0]) > 1e-5 || Abs(p[1]-b[1]) > 1e-5 {
		t.Errorf("Lerp2LL(1) = %v, expected %v", p, b)
	}
}

func TestNormalizeHeading(t *testing.T) {
	for _, c := range []struct {
		h, want float32
	}{
		{90, 90},
		{360, 0},
		{365, 5},
		{-5, 355},
		{-365, 355},
		{720, 0},
	} {
		if got := NormalizeHeading(c.h); got != c.want {
			t.Errorf("NormalizeHeading(%g) = %g, expected %g", c.h, got, c.want)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	for _, c := range []struct {
		a, b, want float32
	}{
		{10, 350, 20},
		{350, 10, 20},
		{90, 270, 180},
		{45, 45, 0},
	} {
		if got := HeadingDifference(c.a, c.b); got != c.want {
			t.Errorf("HeadingDifference(%g, %g) = %g, expected %g", c.a, c.b, got, c.want)
		}
	}
}

func TestHeading2LL(t *testing.T) {
	p := Point2LL{-73, 40}
	nmPerLongitude := NMPerLongitude(p)

	north := Point2LL{-73, 41}
	if h := Heading2LL(p, north, nmPerLongitude, 0); HeadingDifference(h, 0) > 0.5 {
		t.Errorf("heading to point due north: got %g", h)
	}
	east := Point2LL{-72, 40}
	if h := Heading2LL(p, east, nmPerLongitude, 0); HeadingDifference(h, 90) > 0.5 {
		t.Errorf("heading to point due east: got %g", h)
	}
}

func TestDistance2f(t *testing.T) {
	if d := Distance2f([2]float32{1, 2}, [2]float32{4, 6}); d != 5 {
		t.Errorf("Distance2f = %g, expected 5", d)
	}
	if d := Distance2f([2]float32{3, 3}, [2]float32{3, 3}); d != 0 {
		t.Errorf("distance from a point to itself is %g", d)
	}
}

func TestOffset2LL(t *testing.T) {
	p := Point2LL{-73, 40}
	nmPerLongitude := NMPerLongitude(p)

	north := Offset2LL(p, 0, 10, nmPerLongitude)
	if d := NMDistance2LL(p, north); Abs(d-10) > 0.1 {
		t.Errorf("10nm offset north: got %g nm", d)
	}
	if h := Heading2LL(p, north, nmPerLongitude, 0); HeadingDifference(h, 0) > 1 {
		t.Errorf("offset north has heading %g", h)
	}

	east := Offset2LL(p, 90, 10, nmPerLongitude)
	if d := NMDistance2LL(p, east); Abs(d-10) > 0.1 {
		t.Errorf("10nm offset east: got %g nm", d)
	}
	if h := Heading2LL(p, east, nmPerLongitude, 0); HeadingDifference(h, 90) > 1 {
		t.Errorf("offset east has heading %g", h)
	}
}

func TestOppositeHeading(t *testing.T) {
	for _, c := range []struct {
		h, want float32
	}{
		{0, 180},
		{90, 270},
		{270, 90},
		{350, 170},
	} {
		if got := OppositeHeading(c.h); got != c.want {
			t.Errorf("OppositeHeading(%g) = %g, expected %g", c.h, got, c.want)
		}
	}
}
