// aviation/restrictions_test.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import "testing"

func TestAltitudeRestrictionTarget(t *testing.T) {
	for _, tc := range []struct {
		r       AltitudeRestriction
		alt     float32
		want    float32
	}{
		{AtOrAbove(5000), 4000, 5000},
		{AtOrAbove(5000), 6000, 6000},
		{AtOrBelow(5000), 6000, 5000},
		{AtOrBelow(5000), 4000, 4000},
		{At(5000), 12000, 5000},
		{At(5000), 0, 5000},
		{Between(4000, 6000), 3000, 4000},
		{Between(4000, 6000), 7000, 6000},
		{Between(4000, 6000), 5500, 5500},
		{AltitudeRestriction{}, 8000, 8000},
	} {
		if got := tc.r.TargetAltitude(tc.alt); got != tc.want {
			t.Errorf("%s target for %.0f: got %.0f, want %.0f", tc.r.Encoded(), tc.alt, got, tc.want)
		}
	}
}

func TestAltitudeRestrictionSatisfied(t *testing.T) {
	for _, tc := range []struct {
		r    AltitudeRestriction
		alt  float32
		want bool
	}{
		{AtOrAbove(5000), 5000, true},
		{AtOrAbove(5000), 4999, false},
		{AtOrBelow(5000), 5000, true},
		{AtOrBelow(5000), 5001, false},
		{At(5000), 5000, true},
		{At(5000), 5100, false},
		{Between(4000, 6000), 4000, true},
		{Between(4000, 6000), 6000, true},
		{Between(4000, 6000), 6001, false},
		{AltitudeRestriction{}, 31337, true},
	} {
		if got := tc.r.Satisfied(tc.alt); got != tc.want {
			t.Errorf("%s satisfied at %.0f: got %v, want %v", tc.r.Encoded(), tc.alt, got, tc.want)
		}
	}
}

func TestAltitudeRestrictionEncoded(t *testing.T) {
	for _, tc := range []struct {
		r    AltitudeRestriction
		want string
	}{
		{AtOrAbove(5000), "5000+"},
		{AtOrBelow(5000), "5000-"},
		{At(5000), "5000"},
		{Between(4000, 6000), "4000-6000"},
		{AltitudeRestriction{}, ""},
	} {
		if got := tc.r.Encoded(); got != tc.want {
			t.Errorf("encoded: got %q, want %q", got, tc.want)
		}
	}
}
